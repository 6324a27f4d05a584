// Package normalize turns raw attribute strings and period labels into typed values.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/sells-group/finextract/internal/model"
)

var currencySymbols = []struct {
	token string
	unit  string
}{
	{"US$", "USD"},
	{"USD", "USD"},
	{"EUR", "EUR"},
	{"GBP", "GBP"},
	{"INR", "INR"},
	{"Rs.", "INR"},
	{"$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
}

var multiplierWords = []struct {
	suffix string
	factor int64
}{
	{"billion", 1_000_000_000},
	{"million", 1_000_000},
	{"thousand", 1_000},
	{"bn", 1_000_000_000},
	{"mm", 1_000_000},
	{"mn", 1_000_000},
	{"b", 1_000_000_000},
	{"m", 1_000_000},
	{"k", 1_000},
}

var (
	plainNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)
	// 1,234,567 and the lakh form 12,34,567.
	westernGroups = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	lakhGroups    = regexp.MustCompile(`^\d{1,2}(,\d{2})+,\d{3}(\.\d+)?$`)
)

// ParseValue reads raw into a NormalizedValue. Currency symbols and thousands
// separators are stripped, "(123)" reads as -123 and K/M/B suffixes scale the
// value. Commas must form western or lakh digit groups; anything else, such
// as the decimal comma in "2,5", fails as an ambiguous separator. Text
// without a digit never parses.
func ParseValue(raw string) model.NormalizedValue {
	s := strings.TrimSpace(raw)
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return failed("no digit")
	}

	var out model.NormalizedValue
	negative := false

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
		out.Cleanups++
	}

	for _, c := range currencySymbols {
		if strings.Contains(s, c.token) {
			out.CurrencyUnit = c.unit
			s = strings.TrimSpace(strings.Replace(s, c.token, "", 1))
			out.Cleanups++
			break
		}
	}

	// Parentheses may sit inside the currency symbol: "$(1,200)".
	if !negative && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
		out.Cleanups++
	}

	switch {
	case strings.HasPrefix(s, "-"), strings.HasPrefix(s, "\u2212"):
		if negative {
			return failed("double negative")
		}
		negative = true
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(s, "-"), "\u2212"))
	case strings.HasSuffix(s, "-"):
		negative = !negative
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
		out.Cleanups++
	}

	if strings.HasSuffix(s, "%") {
		out.CurrencyUnit = "percent"
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		out.Cleanups++
	}

	factor := int64(1)
	lower := strings.ToLower(s)
	for _, m := range multiplierWords {
		if strings.HasSuffix(lower, m.suffix) {
			head := strings.TrimSpace(s[:len(s)-len(m.suffix)])
			if head == "" || !endsWithDigit(head) {
				continue
			}
			factor = m.factor
			s = head
			out.Cleanups++
			break
		}
	}

	if strings.ContainsAny(s, " \u00a0") {
		s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
		out.Cleanups++
	}
	if strings.Contains(s, ",") {
		bare := strings.ReplaceAll(s, ",", "")
		if plainNumber.MatchString(bare) && !westernGroups.MatchString(s) && !lakhGroups.MatchString(s) {
			return failed("ambiguous separator")
		}
		s = bare
		out.Cleanups++
	}

	if !plainNumber.MatchString(s) {
		return failed("not a number")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return failed(err.Error())
	}
	if factor != 1 {
		d = d.Mul(decimal.NewFromInt(factor))
	}
	if negative {
		d = d.Neg()
	}

	out.NumericValue = decimal.NewNullDecimal(d)
	out.ParseSucceeded = true
	return out
}

// Failure returns the ParseFailure for an unparsed value, or nil.
func Failure(raw string, v model.NormalizedValue) error {
	if v.ParseSucceeded {
		return nil
	}
	return &model.ParseFailure{Field: "value", Input: raw, Why: v.ParseError}
}

func failed(why string) model.NormalizedValue {
	return model.NormalizedValue{ParseError: why}
}

func endsWithDigit(s string) bool {
	r := []rune(s)
	return len(r) > 0 && unicode.IsDigit(r[len(r)-1])
}
