package signal

import (
	"strings"

	"github.com/sells-group/finextract/internal/catalog"
)

const (
	footnoteScore  = 0.2
	unrelatedScore = 0.1
)

// ContextMatch scores whether the candidate came from the section where the
// attribute is expected. The expected section scores 1.0, a related section
// opts.RelatedSectionCredit, a footnote or an unrelated section low. An
// attribute with no expected section scores opts.MinScore.
func ContextMatch(sectionLabel string, attr catalog.Attribute, opts Options) float64 {
	if strings.TrimSpace(attr.ExpectedSection) == "" {
		return clamp01(opts.MinScore)
	}
	got := catalog.CanonicalSection(sectionLabel)
	if got == "" {
		if catalog.Fold(sectionLabel) != "" && catalog.Fold(sectionLabel) == catalog.Fold(attr.ExpectedSection) {
			return 1
		}
		return unrelatedScore
	}

	want := catalog.CanonicalSection(attr.ExpectedSection)
	if want == "" {
		want = catalog.Fold(attr.ExpectedSection)
	}
	if got == want {
		return 1
	}
	for _, rel := range attr.RelatedSections {
		if catalog.CanonicalSection(rel) == got {
			return clamp01(opts.RelatedSectionCredit)
		}
	}
	// Highlights and MD&A restate statement figures.
	if (got == catalog.SectionSummary || got == catalog.SectionMDA) && catalog.PrimaryStatements[want] {
		return clamp01(opts.RelatedSectionCredit)
	}
	if got == catalog.SectionNotes {
		return footnoteScore
	}
	return unrelatedScore
}
