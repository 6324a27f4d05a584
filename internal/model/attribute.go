package model

import (
	"github.com/shopspring/decimal"
)

// QualityTier buckets a confidence score for reporting.
type QualityTier string

const (
	TierHigh   QualityTier = "high"
	TierMedium QualityTier = "medium"
	TierLow    QualityTier = "low"
)

// Tiers lists every quality tier from best to worst.
var Tiers = []QualityTier{TierHigh, TierMedium, TierLow}

// RawCandidate is an unscored attribute value proposed by the extraction model.
type RawCandidate struct {
	AttributeName string `json:"attribute_name"`
	RawValueText  string `json:"raw_value_text"`
	SourceText    string `json:"source_text"`
	SectionLabel  string `json:"document_section_label"`
	DocumentID    string `json:"document_id"`
}

// NormalizedValue is the typed reading of a candidate's raw value text.
// NumericValue is invalid (JSON null) whenever ParseSucceeded is false.
type NormalizedValue struct {
	NumericValue   decimal.NullDecimal `json:"numeric_value"`
	CurrencyUnit   string              `json:"currency_unit,omitempty"`
	ParseSucceeded bool                `json:"parse_succeeded"`

	// Cleanups counts the recoverable formatting steps (currency symbols,
	// separators, parentheses, suffixes) applied before the number parsed.
	Cleanups   int    `json:"cleanups,omitempty"`
	ParseError string `json:"parse_error,omitempty"`
}

// ConfidenceBreakdown holds the four signal sub-scores, each in [0,1].
// Every field is always populated; a signal that could not be evaluated is 0.
type ConfidenceBreakdown struct {
	TextClarity    float64 `json:"text_clarity"`
	ExactMatch     float64 `json:"exact_match"`
	ContextMatch   float64 `json:"context_match"`
	FormatValidity float64 `json:"format_validity"`
}

// ScoredAttribute is a candidate with its normalized value and confidence.
type ScoredAttribute struct {
	Candidate  RawCandidate        `json:"candidate"`
	Value      NormalizedValue     `json:"value"`
	Breakdown  ConfidenceBreakdown `json:"confidence_breakdown"`
	Confidence float64             `json:"confidence"`
	Tier       QualityTier         `json:"quality_tier"`
}

// Numeric returns the parsed value and whether it is usable in aggregates.
func (a ScoredAttribute) Numeric() (decimal.Decimal, bool) {
	if !a.Value.ParseSucceeded || !a.Value.NumericValue.Valid {
		return decimal.Zero, false
	}
	return a.Value.NumericValue.Decimal, true
}
