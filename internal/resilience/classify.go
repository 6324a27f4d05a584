package resilience

import (
	"context"
	"errors"

	"github.com/sells-group/finextract/internal/model"
)

// Classify picks the FailureReason for a per-document error. Deadline and
// cancellation win over whatever stage failed; an ExtractionFailure keeps its
// own reason; anything else takes fallback.
func Classify(ctx context.Context, err error, fallback model.FailureReason) model.FailureReason {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return model.ReasonTimeout
	case errors.Is(err, context.Canceled):
		return model.ReasonCancelled
	}
	if ctx != nil {
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return model.ReasonTimeout
		case context.Canceled:
			return model.ReasonCancelled
		}
	}
	if ef, ok := model.AsExtractionFailure(err); ok && ef.Reason != "" {
		return ef.Reason
	}
	return fallback
}

// Retryable reports whether a document that failed for reason may succeed on
// a later run. Invalid documents and extractor failures fail the same way
// again.
func Retryable(reason model.FailureReason) bool {
	switch reason {
	case model.ReasonTimeout, model.ReasonCancelled, model.ReasonModel:
		return true
	default:
		return false
	}
}
