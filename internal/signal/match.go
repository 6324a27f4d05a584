package signal

import (
	"strings"
	"unicode"

	"github.com/agext/levenshtein"

	"github.com/sells-group/finextract/internal/catalog"
)

const (
	containsCredit = 0.9
	fuzzyFloor     = 0.75
	unrelatedScale = 0.2
)

// ExactMatch scores how closely the label printed next to the value matches
// the attribute name or one of its synonyms. An identical label scores 1.0,
// a synonym or a close variant scores partial credit and an unrelated label
// scores near 0. Without synonyms in the catalog the score is floored at
// opts.MinScore.
func ExactMatch(source, rawValue string, attr catalog.Attribute, opts Options) float64 {
	label := catalog.Fold(AdjacentLabel(source, rawValue))
	if label == "" {
		return 0
	}

	name := catalog.Fold(attr.Name)
	score := phraseScore(label, name, 1)
	for _, syn := range attr.Synonyms {
		if s := phraseScore(label, catalog.Fold(syn), opts.SynonymCredit); s > score {
			score = s
		}
	}
	if len(attr.Synonyms) == 0 && score < opts.MinScore {
		score = opts.MinScore
	}
	return clamp01(score)
}

func phraseScore(label, target string, credit float64) float64 {
	if target == "" {
		return 0
	}
	if label == target {
		return credit
	}
	if containsPhrase(label, target) {
		return credit * containsCredit
	}
	sim := levenshtein.Similarity(label, target, nil)
	if sim >= fuzzyFloor {
		return credit * sim * containsCredit
	}
	return credit * sim * unrelatedScale
}

func containsPhrase(label, target string) bool {
	return strings.Contains(" "+label+" ", " "+target+" ")
}

// AdjacentLabel returns the text printed next to the value in source: the
// rest of the line before the value, or after it when the value leads the
// line. Leader dots, colons and currency markers are trimmed.
func AdjacentLabel(source, rawValue string) string {
	raw := strings.TrimSpace(rawValue)
	idx := -1
	if raw != "" {
		idx = strings.Index(source, raw)
	}
	end := idx + len(raw)
	if idx < 0 {
		idx = strings.IndexFunc(source, unicode.IsDigit)
		end = idx
	}
	if idx < 0 {
		return trimLabel(lastLine(source))
	}

	if label := trimLabel(lastLine(source[:idx])); label != "" {
		return label
	}
	after := source[end:]
	if i := strings.IndexByte(after, '\n'); i >= 0 {
		after = after[:i]
	}
	return trimLabel(strings.TrimLeftFunc(after, func(r rune) bool {
		return unicode.IsDigit(r) || strings.ContainsRune(",.()$%-", r) || unicode.IsSpace(r)
	}))
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func trimLabel(s string) string {
	return strings.Trim(s, " \t.:-_|$€£¥₹(")
}
