package catalog

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/finextract/internal/model"
)

// readXLSX reads attributes from the first sheet of a workbook. The first row
// is a header naming the columns; list columns are split on ";", or on "," when no ";" is present.
func readXLSX(path string) ([]Attribute, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, &model.ConfigurationError{Problems: []string{"catalog: workbook has no sheets"}}
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, &model.ConfigurationError{Problems: []string{"catalog: sheet is empty"}}
	}

	header := rowToStrings(sheet.Rows[0])
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, &model.ConfigurationError{Problems: []string{"catalog: header has no name column"}}
	}

	var attrs []Attribute
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		}
		if get("name") == "" && strings.Join(cells, "") == "" {
			continue
		}
		attrs = append(attrs, Attribute{
			Name:            get("name"),
			Description:     get("description"),
			ExpectedUnit:    get("expected_unit"),
			ExpectedSection: get("expected_section"),
			RelatedSections: splitList(get("related_sections")),
			Synonyms:        splitList(get("synonyms")),
			Required:        parseBool(get("required")),
		})
	}
	return attrs, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	sep := ";"
	if !strings.Contains(s, sep) {
		sep = ","
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "x":
		return true
	}
	return false
}
