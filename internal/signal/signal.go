// Package signal computes the four per-attribute confidence signals. Each
// evaluator is pure and returns a score in [0,1].
package signal

import (
	"math"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
)

// Options tunes the evaluators.
type Options struct {
	// MinScore is returned by a signal whose reference data is missing from
	// the catalog (no synonyms, no expected section).
	MinScore float64
	// SynonymCredit scales a match on a synonym rather than the name.
	SynonymCredit float64
	// RelatedSectionCredit is the ContextMatch score for a related section.
	RelatedSectionCredit float64
	// AnomalyPenalty is subtracted from TextClarity per detected anomaly.
	AnomalyPenalty float64
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		MinScore:             0.5,
		SynonymCredit:        0.8,
		RelatedSectionCredit: 0.6,
		AnomalyPenalty:       0.15,
	}
}

// Evaluate runs all four evaluators for one candidate.
func Evaluate(c model.RawCandidate, v model.NormalizedValue, attr catalog.Attribute, opts Options) model.ConfidenceBreakdown {
	return model.ConfidenceBreakdown{
		TextClarity:    TextClarity(c.SourceText, opts),
		ExactMatch:     ExactMatch(c.SourceText, c.RawValueText, attr, opts),
		ContextMatch:   ContextMatch(c.SectionLabel, attr, opts),
		FormatValidity: FormatValidity(v, attr.ExpectedUnit),
	}
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f), f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
