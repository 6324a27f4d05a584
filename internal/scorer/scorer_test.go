package scorer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/signal"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultWeights(), signal.DefaultOptions())
	require.NoError(t, err)
	return s
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 1.0, WeightSum(DefaultWeights()), 1e-12)
	assert.NoError(t, ValidateWeights(DefaultWeights()))
}

func TestValidateWeights(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		weights config.WeightsConfig
		want    string
	}{
		{"sum below one", config.WeightsConfig{TextClarity: 0.25, ExactMatch: 0.25, ContextMatch: 0.25, FormatValidity: 0.15}, "must sum to 1.0, got 0.9000"},
		{"sum above one", config.WeightsConfig{TextClarity: 0.5, ExactMatch: 0.5, ContextMatch: 0.25, FormatValidity: 0.25}, "got 1.5000"},
		{"negative", config.WeightsConfig{TextClarity: -0.25, ExactMatch: 0.75, ContextMatch: 0.25, FormatValidity: 0.25}, "text_clarity must be >= 0"},
		{"nan", config.WeightsConfig{TextClarity: math.NaN(), ExactMatch: 0.3, ContextMatch: 0.25, FormatValidity: 0.2}, "text_clarity must be >= 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateWeights(tt.weights)
			require.Error(t, err)
			assert.True(t, model.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateWeights_ToleratesRounding(t *testing.T) {
	t.Parallel()

	w := config.WeightsConfig{TextClarity: 0.1, ExactMatch: 0.2, ContextMatch: 0.3, FormatValidity: 0.4}
	assert.NoError(t, ValidateWeights(w))
}

func TestNew_RejectsBadWeights(t *testing.T) {
	t.Parallel()

	_, err := New(config.WeightsConfig{TextClarity: 1, ExactMatch: 1}, signal.DefaultOptions())
	assert.True(t, model.IsConfigurationError(err))
}

func TestScore(t *testing.T) {
	t.Parallel()

	s := newScorer(t)
	tests := []struct {
		name string
		b    model.ConfidenceBreakdown
		want float64
	}{
		{"all ones", model.ConfidenceBreakdown{TextClarity: 1, ExactMatch: 1, ContextMatch: 1, FormatValidity: 1}, 1.0},
		{"all zeros", model.ConfidenceBreakdown{}, 0},
		{"mixed", model.ConfidenceBreakdown{TextClarity: 0.8, ExactMatch: 0.9, ContextMatch: 0.6, FormatValidity: 1.0}, 0.82},
		{"exact only", model.ConfidenceBreakdown{ExactMatch: 1}, 0.30},
		{"clamped", model.ConfidenceBreakdown{TextClarity: 2, ExactMatch: -1, ContextMatch: 1, FormatValidity: math.NaN()}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := s.Score(tt.b)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestTier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		conf float64
		want model.QualityTier
	}{
		{1.0, model.TierHigh},
		{0.80, model.TierHigh},
		{0.7999, model.TierMedium},
		{0.50, model.TierMedium},
		{0.4999, model.TierLow},
		{0, model.TierLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Tier(tt.conf), "confidence %v", tt.conf)
	}

	// 0.25+0.30+0.25 computed in floating point lands just under 0.8.
	assert.Equal(t, model.TierHigh, Tier(Combine(DefaultWeights(), model.ConfidenceBreakdown{
		TextClarity: 1, ExactMatch: 1, ContextMatch: 1,
	})))
}

func TestScoreCandidate(t *testing.T) {
	t.Parallel()

	s := newScorer(t)
	attr, ok := catalog.Default().Lookup("TotalRevenue")
	require.True(t, ok)

	got := s.ScoreCandidate(model.RawCandidate{
		AttributeName: "TotalRevenue",
		RawValueText:  "$1,500,000",
		SourceText:    "Total Revenue ........ $1,500,000",
		SectionLabel:  "Income Statement",
		DocumentID:    "q1_2023.pdf",
	}, attr)

	assert.True(t, got.Value.ParseSucceeded)
	assert.Equal(t, "1500000", got.Value.NumericValue.Decimal.String())
	assert.InDelta(t, 0.25+0.30+0.25+0.20*0.9, got.Confidence, 1e-9)
	assert.Equal(t, model.TierHigh, got.Tier)

	bad := s.ScoreCandidate(model.RawCandidate{
		AttributeName: "TotalRevenue",
		RawValueText:  "N/A",
		SourceText:    "Revenue N/A",
		SectionLabel:  "Notes",
	}, attr)
	assert.False(t, bad.Value.ParseSucceeded)
	assert.Equal(t, 0.0, bad.Breakdown.FormatValidity)
	// Clear text and a synonym label still count: 0.25 + 0.24 + 0.05.
	assert.InDelta(t, 0.54, bad.Confidence, 1e-9)
	assert.Equal(t, model.TierMedium, bad.Tier)
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	s, err := FromConfig(config.ScoringConfig{Weights: DefaultWeights(), MinSignalScore: 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, s.signals.MinScore, 1e-12)
}
