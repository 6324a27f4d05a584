package signal

import (
	"math"
	"strings"

	"github.com/sells-group/finextract/internal/model"
)

var currencyCodes = map[string]bool{"USD": true, "EUR": true, "GBP": true, "INR": true, "JPY": true}

// FormatValidity scores how cleanly the raw value parsed. A clean parse
// scores 1.0, each recoverable cleanup lowers the score and a failed parse
// scores 0. A value whose unit contradicts the expected unit is halved.
func FormatValidity(v model.NormalizedValue, expectedUnit string) float64 {
	if !v.ParseSucceeded {
		return 0
	}
	score := 1.0
	if v.Cleanups > 0 {
		score = math.Max(0.75, 0.95-0.05*float64(v.Cleanups-1))
	}
	if unitConflict(v.CurrencyUnit, expectedUnit) {
		score *= 0.5
	}
	return clamp01(score)
}

func unitConflict(got, expected string) bool {
	if got == "" || expected == "" {
		return false
	}
	exp := strings.ToUpper(expected)
	gotCurrency := currencyCodes[got]
	switch {
	case exp == "CURRENCY":
		return !gotCurrency
	case currencyCodes[exp]:
		return got != exp
	case exp == "PERCENT":
		return got != "percent"
	default:
		// ratio, count, number
		return true
	}
}
