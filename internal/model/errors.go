package model

import (
	"errors"
	"fmt"
	"strings"
)

// FailureReason classifies why a document failed.
type FailureReason string

const (
	ReasonExtractor       FailureReason = "extractor"
	ReasonModel           FailureReason = "model"
	ReasonTimeout         FailureReason = "timeout"
	ReasonCancelled       FailureReason = "cancelled"
	ReasonInvalidDocument FailureReason = "invalid_document"
)

// ExtractionFailure is a per-document failure of the text extractor or the
// extraction model. It never aborts a batch.
type ExtractionFailure struct {
	DocumentID string
	Reason     FailureReason
	Err        error
}

func (e *ExtractionFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction failure (%s) for %s", e.Reason, e.DocumentID)
	}
	return fmt.Sprintf("extraction failure (%s) for %s: %v", e.Reason, e.DocumentID, e.Err)
}

func (e *ExtractionFailure) Unwrap() error {
	return e.Err
}

// AsExtractionFailure returns the ExtractionFailure in err's chain, if any.
func AsExtractionFailure(err error) (*ExtractionFailure, bool) {
	var ef *ExtractionFailure
	if errors.As(err, &ef) {
		return ef, true
	}
	return nil, false
}

// ParseFailure records a value or period label the normalizer could not read.
type ParseFailure struct {
	Field string
	Input string
	Why   string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("parse failure on %s %q: %s", e.Field, e.Input, e.Why)
}

// ConfigurationError is fatal: it is raised before any document is processed.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + strings.Join(e.Problems, "; ")
}

// IsConfigurationError reports whether err's chain holds a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
