package signal

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// "1, 500" or "1 ,500": a separator split from its digits.
	brokenNumber = regexp.MustCompile(`\d,\s+\d{3}\b|\d\s+,\d`)
	// Three or more symbols in a row that are not layout leaders.
	symbolRun = regexp.MustCompile(`[^\p{L}\p{N}\s.\-_=·,()$%]{3,}`)
)

// Letters that OCR commonly produces in place of digits.
const confusables = "OolISBZ|"

// TextClarity scores how legible the source text looks. Each anomaly
// (a letter standing in for a digit, a replacement or control character,
// letter-spaced words, a number split by whitespace, a run of stray
// symbols) costs opts.AnomalyPenalty. Empty text scores 0.
func TextClarity(text string, opts Options) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	n := countAnomalies(text)
	return clamp01(1 - float64(n)*opts.AnomalyPenalty)
}

func countAnomalies(text string) int {
	n := 0
	for _, r := range text {
		if r == unicode.ReplacementChar || (unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' && r != '\f') {
			n++
		}
	}

	fields := strings.Fields(text)
	spaced := 0
	for _, f := range fields {
		n += confusableDigits(f)

		if len([]rune(f)) == 1 && unicode.IsLetter([]rune(f)[0]) {
			spaced++
			continue
		}
		if spaced >= 3 {
			n++
		}
		spaced = 0
	}
	if spaced >= 3 {
		n++
	}

	n += len(brokenNumber.FindAllStringIndex(text, -1))
	n += len(symbolRun.FindAllStringIndex(text, -1))
	return n
}

// confusableDigits counts confusable letters inside a token that otherwise
// reads as a number, e.g. "1O5,OOO" or "l,250". A trailing K/M/B scale
// suffix is not counted.
func confusableDigits(tok string) int {
	tok = strings.Trim(tok, "$()%:;")
	r := []rune(tok)
	if len(r) > 1 && strings.ContainsRune("kKmMbB", r[len(r)-1]) && unicode.IsDigit(r[len(r)-2]) {
		r = r[:len(r)-1]
	}
	digits, bad := 0, 0
	for _, c := range r {
		switch {
		case unicode.IsDigit(c):
			digits++
		case strings.ContainsRune(confusables, c):
			bad++
		case c == ',' || c == '.':
		default:
			return 0
		}
	}
	if digits == 0 || bad == 0 {
		return 0
	}
	return bad
}
