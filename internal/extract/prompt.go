package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
)

const truncationMarker = "\n[... text truncated ...]"

const instructions = `You extract financial statement figures from document text.

Return only a JSON object of this form:
{
  "extracted_attributes": {
    "<AttributeName>": {"value": "<as printed>", "source_text": "<line containing the value>", "section": "<statement heading>"}
  },
  "period_label": "<reporting period as printed>"
}

Rules:
- Use exactly the attribute names listed below.
- Copy each value exactly as printed, including currency symbols, parentheses, minus signs and unit words such as "million".
- Use null for an attribute that does not appear in the text. Never estimate or compute a value.
- source_text is the full line the value was taken from.
- section is the heading of the statement or note the value appears under.
- period_label is the reporting period the figures cover, for example "Quarter ended March 31, 2023" or "Fiscal year 2022".`

// SystemPrompt renders the extraction instructions and the attribute list.
// It is identical for every document extracted against cat.
func SystemPrompt(cat *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\nAttributes:\n")
	for _, a := range cat.Attributes() {
		fmt.Fprintf(&sb, "- %s", a.Name)
		if a.ExpectedUnit != "" {
			fmt.Fprintf(&sb, " (%s)", a.ExpectedUnit)
		}
		if a.Description != "" {
			fmt.Fprintf(&sb, ": %s", a.Description)
		}
		if len(a.Synonyms) > 0 {
			fmt.Fprintf(&sb, " Also printed as: %s.", strings.Join(a.Synonyms, ", "))
		}
		if a.ExpectedSection != "" {
			fmt.Fprintf(&sb, " Usually in the %s.", strings.ReplaceAll(a.ExpectedSection, "_", " "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// UserPrompt renders one document's text blocks, cut to maxChars.
func UserPrompt(doc model.DocumentRef, blocks []model.TextBlock, maxChars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document: %s\n\n", displayName(doc))
	for _, b := range blocks {
		fmt.Fprintf(&sb, "[page %d", b.Page)
		if b.SectionLabel != "" {
			fmt.Fprintf(&sb, " | %s", b.SectionLabel)
		}
		sb.WriteString("]\n")
		sb.WriteString(b.Text)
		sb.WriteString("\n\n")
	}
	return Truncate(sb.String(), maxChars)
}

// Truncate cuts s to at most maxChars runes and marks the cut. maxChars <= 0
// leaves s alone.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}

func displayName(doc model.DocumentRef) string {
	if doc.Name != "" {
		return doc.Name
	}
	return doc.ID
}
