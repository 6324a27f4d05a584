package ocr

import (
	"regexp"
	"strings"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
)

const maxHeadingWords = 14

// UnknownSection labels text that precedes any recognized heading.
const UnknownSection = "unknown"

// Headings never carry formatted amounts.
var amountRe = regexp.MustCompile(`\d[,.]\d`)

// Sectionize splits per-page text into blocks. A block ends at a page break
// or at a line that reads as a financial statement heading. The current
// section label carries across page breaks until the next heading.
func Sectionize(pages []string) []model.TextBlock {
	var blocks []model.TextBlock
	section := UnknownSection

	for i, page := range pages {
		var cur strings.Builder
		flush := func() {
			if strings.TrimSpace(cur.String()) != "" {
				blocks = append(blocks, model.TextBlock{
					Page:         i + 1,
					SectionLabel: section,
					Text:         strings.TrimRight(cur.String(), "\n"),
				})
			}
			cur.Reset()
		}

		for _, line := range strings.Split(page, "\n") {
			if heading, ok := headingOf(line); ok {
				flush()
				section = heading
			}
			cur.WriteString(line)
			cur.WriteByte('\n')
		}
		flush()
	}
	return blocks
}

// headingOf reports whether line is a section heading and returns it cleaned.
func headingOf(line string) (string, bool) {
	s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#*"))
	s = strings.Trim(s, "*_ ")
	if s == "" || amountRe.MatchString(s) {
		return "", false
	}
	if len(strings.Fields(s)) > maxHeadingWords {
		return "", false
	}
	if catalog.CanonicalSection(s) == "" {
		return "", false
	}
	return s, true
}
