package scorer

import (
	"math"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/normalize"
	"github.com/sells-group/finextract/internal/signal"
)

// Tier boundaries. A score exactly on a boundary takes the higher tier.
const (
	HighThreshold   = 0.80
	MediumThreshold = 0.50

	tierEpsilon = 1e-9
)

// Scorer turns raw candidates into scored attributes.
type Scorer struct {
	weights config.WeightsConfig
	signals signal.Options
}

// New validates the weights and builds a Scorer.
func New(w config.WeightsConfig, opts signal.Options) (*Scorer, error) {
	if err := ValidateWeights(w); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, signals: opts}, nil
}

// FromConfig builds a Scorer from the scoring section.
func FromConfig(cfg config.ScoringConfig) (*Scorer, error) {
	return New(cfg.Weights, signal.Options{
		MinScore:             cfg.MinSignalScore,
		SynonymCredit:        cfg.SynonymCredit,
		RelatedSectionCredit: cfg.RelatedSectionCredit,
		AnomalyPenalty:       cfg.AnomalyPenalty,
	})
}

// Score is the weighted sum of the four sub-scores. Sub-scores are clamped
// to [0,1] first, so the result always lies in [0,1].
func (s *Scorer) Score(b model.ConfidenceBreakdown) float64 {
	return Combine(s.weights, b)
}

// Combine computes the weighted confidence for b under w.
func Combine(w config.WeightsConfig, b model.ConfidenceBreakdown) float64 {
	sum := w.TextClarity*clamp(b.TextClarity) +
		w.ExactMatch*clamp(b.ExactMatch) +
		w.ContextMatch*clamp(b.ContextMatch) +
		w.FormatValidity*clamp(b.FormatValidity)
	return clamp(sum)
}

// Tier maps a confidence to its quality tier: >= 0.80 high, >= 0.50 medium,
// otherwise low.
func Tier(confidence float64) model.QualityTier {
	switch {
	case confidence >= HighThreshold-tierEpsilon:
		return model.TierHigh
	case confidence >= MediumThreshold-tierEpsilon:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// ScoreCandidate normalizes c's value, evaluates every signal against attr
// and returns the scored attribute.
func (s *Scorer) ScoreCandidate(c model.RawCandidate, attr catalog.Attribute) model.ScoredAttribute {
	v := normalize.ParseValue(c.RawValueText)
	b := signal.Evaluate(c, v, attr, s.signals)
	conf := s.Score(b)
	return model.ScoredAttribute{
		Candidate:  c,
		Value:      v,
		Breakdown:  b,
		Confidence: conf,
		Tier:       Tier(conf),
	}
}

func clamp(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
