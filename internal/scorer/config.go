// Package scorer combines the four signal sub-scores into one confidence and
// assigns its quality tier.
package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
)

// weightTolerance absorbs floating-point drift in configured weights.
const weightTolerance = 1e-9

// DefaultWeights returns the stock signal weights. They sum to 1.
func DefaultWeights() config.WeightsConfig {
	return config.WeightsConfig{
		TextClarity:    0.25,
		ExactMatch:     0.30,
		ContextMatch:   0.25,
		FormatValidity: 0.20,
	}
}

// WeightSum returns the sum of all signal weights.
func WeightSum(w config.WeightsConfig) float64 {
	return w.TextClarity + w.ExactMatch + w.ContextMatch + w.FormatValidity
}

// ValidateWeights checks that w is a convex combination. Problems come back
// as a ConfigurationError so a batch refuses to start.
func ValidateWeights(w config.WeightsConfig) error {
	var errs []string

	for _, c := range []struct {
		name string
		v    float64
	}{
		{"text_clarity", w.TextClarity},
		{"exact_match", w.ExactMatch},
		{"context_match", w.ContextMatch},
		{"format_validity", w.FormatValidity},
	} {
		if c.v < 0 || math.IsNaN(c.v) {
			errs = append(errs, fmt.Sprintf("scoring.weights.%s must be >= 0", c.name))
		}
	}

	if sum := WeightSum(w); math.Abs(sum-1) > weightTolerance {
		errs = append(errs, fmt.Sprintf("scoring.weights must sum to 1.0, got %.4f", sum))
	}

	if len(errs) > 0 {
		return &model.ConfigurationError{Problems: errs}
	}
	return nil
}
