package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/sells-group/finextract/internal/model"
)

var (
	// SEC form names carry digits that read like months or quarters.
	formNames = regexp.MustCompile(`(?:^|[^a-z0-9])(?:10-?k|10-?q|20-?f|8-?k|40-?f)(?:[^a-z0-9]|$)`)

	yearRe     = regexp.MustCompile(` ((?:19|20)\d{2}) `)
	fyShortRe  = regexp.MustCompile(` fy (\d{2}) `)
	halfRe     = regexp.MustCompile(` (h [12]|half year|half yearly|semi annual|six months|6 months) `)
	annualRe   = regexp.MustCompile(` (annual|annually|yearly|fy|fiscal year|full year|year ended|year ending|year end|twelve months|12 months) `)
	monthTagRe = regexp.MustCompile(` m (1[0-2]|0?[1-9]) `)
	// "quarter ended March 31" names the quarter by its closing month.
	quarterEndRe = regexp.MustCompile(` (quarter|qtr|three months|3 months) (ended|ending) `)

	quarterRes = []*regexp.Regexp{
		regexp.MustCompile(` q ([1-4]) `),
		regexp.MustCompile(` ([1-4]) q `),
		regexp.MustCompile(` ([1-4]) (?:st|nd|rd|th) (?:quarter|qtr) `),
		regexp.MustCompile(` (?:quarter|qtr) ([1-4]) `),
	}
	quarterWordRe = regexp.MustCompile(` (first|second|third|fourth) (?:quarter|qtr) `)

	yearMonthRe = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)\d{2})[-_./](0[1-9]|1[0-2])(?:[^0-9]|$)`)
	monthYearRe = regexp.MustCompile(`(?:^|[^0-9])(0[1-9]|1[0-2])[-_./]((?:19|20)\d{2})(?:[^0-9]|$)`)
)

var quarterWords = map[string]int{"first": 1, "second": 2, "third": 3, "fourth": 4}

var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// ParsePeriod reads a filename or metadata label into a PeriodKey. Quarter
// labels win over month labels, "quarter ended <month>" maps to the calendar
// quarter holding that month, annual markers ("FY", "year ended") win over
// month names, a full period-end date ("December 31, 2023") reads as annual
// and a bare year reads as annual. Labels with no year, several distinct
// years, a half-year marker or an out-of-range "Q5"/"M13" marker do not
// resolve.
func ParsePeriod(label string) (model.PeriodKey, bool) {
	lower := formNames.ReplaceAllString(strings.ToLower(label), " ")
	norm := tokenize(lower)

	year, ok := findYear(norm)
	if !ok {
		return model.PeriodKey{}, false
	}
	if badMarker(norm) {
		return model.PeriodKey{}, false
	}

	if q := findQuarter(norm); q > 0 {
		return model.PeriodKey{Year: year, Period: model.Quarter(q)}, true
	}
	if quarterEndRe.MatchString(norm) {
		if m := findMonth(lower, norm, year); m > 0 {
			return model.PeriodKey{Year: year, Period: model.Quarter((m-1)/3 + 1)}, true
		}
	}
	if halfRe.MatchString(norm) {
		return model.PeriodKey{}, false
	}
	if annualRe.MatchString(norm) || periodEndDate(norm) {
		return model.PeriodKey{Year: year, Period: model.PeriodAnnual}, true
	}
	if m := findMonth(lower, norm, year); m > 0 {
		return model.PeriodKey{Year: year, Period: model.Month(m)}, true
	}
	return model.PeriodKey{Year: year, Period: model.PeriodAnnual}, true
}

// ResolvePeriod tries each label in order and returns the first that parses
// along with the label used.
func ResolvePeriod(labels ...string) (*model.PeriodKey, string) {
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if k, ok := ParsePeriod(l); ok {
			return &k, l
		}
	}
	return nil, ""
}

// PeriodFailure describes an unresolvable label.
func PeriodFailure(label string) error {
	return &model.ParseFailure{Field: "period", Input: label, Why: "no unambiguous year and period"}
}

// tokenize splits s on anything that is not a letter or digit
// and at letter/digit boundaries, and pads the result with spaces so the
// token regexes can anchor on them.
func tokenize(s string) string {
	var b strings.Builder
	b.WriteByte(' ')
	var prev rune
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if prev != 0 && prev != ' ' && unicode.IsDigit(prev) != unicode.IsDigit(r) {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			prev = r
		default:
			if prev != ' ' {
				b.WriteByte(' ')
			}
			prev = ' '
		}
	}
	if prev != ' ' {
		b.WriteByte(' ')
	}
	return b.String()
}

func findYear(norm string) (int, bool) {
	years := make(map[int]struct{})
	// Adjacent matches share a separator space, so scan token by token.
	for _, tok := range strings.Fields(norm) {
		if m := yearRe.FindStringSubmatch(" " + tok + " "); m != nil {
			y, _ := strconv.Atoi(m[1])
			years[y] = struct{}{}
		}
	}
	for _, m := range fyShortRe.FindAllStringSubmatch(norm, -1) {
		y, _ := strconv.Atoi(m[1])
		years[2000+y] = struct{}{}
	}
	if len(years) != 1 {
		return 0, false
	}
	for y := range years {
		return y, true
	}
	return 0, false
}

func findQuarter(norm string) int {
	for _, re := range quarterRes {
		if m := re.FindStringSubmatch(norm); m != nil {
			q, _ := strconv.Atoi(m[1])
			return q
		}
	}
	if m := quarterWordRe.FindStringSubmatch(norm); m != nil {
		return quarterWords[m[1]]
	}
	return 0
}

func findMonth(lower, norm string, year int) int {
	for _, tok := range strings.Fields(norm) {
		if m, ok := monthNames[tok]; ok {
			return m
		}
	}
	if m := monthTagRe.FindStringSubmatch(norm); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	if m := yearMonthRe.FindStringSubmatch(lower); m != nil && m[1] == strconv.Itoa(year) {
		n, _ := strconv.Atoi(m[2])
		return n
	}
	if m := monthYearRe.FindStringSubmatch(lower); m != nil && m[2] == strconv.Itoa(year) {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

// badMarker reports a quarter or month marker whose number is out of range,
// such as "Q5" or "M13".
func badMarker(norm string) bool {
	toks := strings.Fields(norm)
	for i := 0; i+1 < len(toks); i++ {
		if len(toks[i+1]) > 2 {
			continue
		}
		n, err := strconv.Atoi(toks[i+1])
		if err != nil {
			continue
		}
		switch toks[i] {
		case "q":
			if n < 1 || n > 4 {
				return true
			}
		case "m":
			if n < 1 || n > 12 {
				return true
			}
		}
	}
	return false
}

// periodEndDate reports a month name with a day of month next to it, as in
// "December 31, 2023" or "31 Dec 2023". Such labels name the day a period
// closed, not a monthly period.
func periodEndDate(norm string) bool {
	if monthTagRe.MatchString(norm) {
		return false
	}
	toks := strings.Fields(norm)
	for i, tok := range toks {
		if _, ok := monthNames[tok]; !ok {
			continue
		}
		if (i+1 < len(toks) && isDay(toks[i+1])) || (i > 0 && isDay(toks[i-1])) {
			return true
		}
	}
	return false
}

func isDay(tok string) bool {
	if len(tok) > 2 {
		return false
	}
	d, err := strconv.Atoi(tok)
	return err == nil && d >= 1 && d <= 31
}
