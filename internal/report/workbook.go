package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/scorer"
)

// Sheet names, in workbook order.
const (
	SheetSummary      = "Summary Dashboard"
	SheetConsolidated = "Consolidated Data"
	SheetYoY          = "Year-over-Year Analysis"
	SheetBreakdown    = "Monthly Breakdown"
	SheetDocuments    = "Individual PDF Details"
	SheetQuality      = "Data Quality Report"
)

// Sheets lists every sheet the workbook carries.
var Sheets = []string{SheetSummary, SheetConsolidated, SheetYoY, SheetBreakdown, SheetDocuments, SheetQuality}

// UndefinedPct is written in place of a percentage change over a zero base.
const UndefinedPct = "undefined"

const noExtractable = "no extractable attributes"

type styles struct {
	title, header, flagged, money, pct, conf int
}

// Workbook renders ds as an xlsx file.
func Workbook(ds model.ConsolidatedDataset, weights config.WeightsConfig, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", Sheets[0]); err != nil {
		return nil, eris.Wrap(err, "report: rename default sheet")
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return nil, eris.Wrapf(err, "report: create sheet %s", name)
		}
	}
	f.SetActiveSheet(0)

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	writers := []func(*excelize.File, styles, model.ConsolidatedDataset) error{
		func(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
			return writeSummary(f, st, ds, generated)
		},
		writeConsolidated,
		writeYoY,
		writeBreakdown,
		writeDocuments,
		func(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
			return writeQuality(f, st, ds, weights)
		},
	}
	for i, w := range writers {
		if err := w(f, st, ds); err != nil {
			return nil, eris.Wrapf(err, "report: write sheet %s", Sheets[i])
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, eris.Wrap(err, "report: xlsx write")
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&st.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&st.header, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1F4E78"}},
		}},
		{&st.flagged, &excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFF2CC"}}}},
		{&st.money, &excelize.Style{NumFmt: 4}},
		{&st.pct, &excelize.Style{NumFmt: 10}},
		{&st.conf, &excelize.Style{NumFmt: 2}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, eris.Wrap(err, "report: create style")
		}
		*d.dst = id
	}
	return st, nil
}

// sheet appends rows to one worksheet and keeps the first error.
type sheet struct {
	f    *excelize.File
	name string
	row  int
	err  error
}

func newSheet(f *excelize.File, name string) *sheet {
	return &sheet{f: f, name: name}
}

// add writes values on the next row and returns its number.
func (s *sheet) add(values ...any) int {
	s.row++
	if s.err != nil || len(values) == 0 {
		return s.row
	}
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		s.err = err
		return s.row
	}
	s.err = s.f.SetSheetRow(s.name, cell, &values)
	return s.row
}

func (s *sheet) blank() { s.row++ }

// style applies id to columns [from, to] of row.
func (s *sheet) style(row, from, to, id int) {
	if s.err != nil {
		return
	}
	h, err := excelize.CoordinatesToCellName(from, row)
	if err != nil {
		s.err = err
		return
	}
	v, err := excelize.CoordinatesToCellName(to, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.name, h, v, id)
}

func (s *sheet) header(st styles, values ...any) {
	row := s.add(values...)
	s.style(row, 1, len(values), st.header)
}

func (s *sheet) title(st styles, text string) {
	row := s.add(text)
	s.style(row, 1, 1, st.title)
}

func (s *sheet) widths(widths ...float64) {
	for i, w := range widths {
		if s.err != nil {
			return
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			s.err = err
			return
		}
		s.err = s.f.SetColWidth(s.name, col, col, w)
	}
}

func writeSummary(f *excelize.File, st styles, ds model.ConsolidatedDataset, generated time.Time) error {
	s := newSheet(f, SheetSummary)
	sum := model.Summarize(ds.Documents)

	s.title(st, "Financial Data Consolidation Report")
	s.add("Generated", generated.UTC().Format(time.RFC3339))
	s.blank()
	s.header(st, "Metric", "Value")
	s.add("Documents processed", sum.Documents)
	s.add("Successful", sum.Succeeded)
	s.add("Partial", sum.Partial)
	s.add("Failed", sum.Failed)
	s.add("Unresolved periods", sum.Unresolved)
	row := s.add("Overall confidence", confidenceCell(sum.OverallConfidence))
	s.style(row, 2, 2, st.conf)

	periods := ds.Periods()
	labels := make([]string, len(periods))
	for i, p := range periods {
		labels[i] = p.String()
	}
	s.add("Periods covered", strings.Join(labels, ", "))
	s.add("Attributes consolidated", len(ds.Attributes()))

	year, metrics := keyMetrics(ds)
	s.blank()
	if year == 0 {
		s.add("Key metrics", "no consolidated values")
	} else {
		s.title(st, fmt.Sprintf("Key metrics (%d)", year))
		s.header(st, "Attribute", "Period", "Value", "Confidence", "Source document")
		for _, k := range metrics {
			v := ds.Values[k]
			row := s.add(k.Attribute, k.Period.String(), v.Value.InexactFloat64(), v.Confidence, v.DocumentID)
			s.style(row, 3, 3, st.money)
			s.style(row, 4, 4, st.conf)
		}
	}
	s.widths(32, 22, 18, 12, 40)
	return s.err
}

// keyMetrics picks the latest year in the projection and its values,
// preferring annual figures when that year has any.
func keyMetrics(ds model.ConsolidatedDataset) (int, []model.ValueKey) {
	keys := ds.Keys()
	year := 0
	for _, k := range keys {
		if k.Period.Year > year {
			year = k.Period.Year
		}
	}
	var annual, all []model.ValueKey
	for _, k := range keys {
		if k.Period.Year != year {
			continue
		}
		all = append(all, k)
		if k.Period.Period == model.PeriodAnnual {
			annual = append(annual, k)
		}
	}
	if len(annual) > 0 {
		return year, annual
	}
	return year, all
}

func writeConsolidated(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
	s := newSheet(f, SheetConsolidated)
	periods := ds.Periods()

	head := []any{"Attribute"}
	for _, p := range periods {
		head = append(head, p.String())
	}
	s.header(st, head...)
	for _, attr := range ds.Attributes() {
		cells := []any{attr}
		for _, p := range periods {
			if v, ok := ds.Lookup(attr, p); ok {
				cells = append(cells, v.Value.InexactFloat64())
			} else {
				cells = append(cells, nil)
			}
		}
		row := s.add(cells...)
		if len(periods) > 0 {
			s.style(row, 2, len(periods)+1, st.money)
		}
	}

	s.blank()
	s.header(st, "Attribute", "Period", "Value", "Confidence", "Tier", "Source document", "Contenders")
	for _, k := range ds.Keys() {
		v := ds.Values[k]
		row := s.add(k.Attribute, k.Period.String(), v.Value.InexactFloat64(), v.Confidence,
			string(scorer.Tier(v.Confidence)), v.DocumentID, v.Contenders)
		s.style(row, 3, 3, st.money)
		s.style(row, 4, 4, st.conf)
	}
	s.widths(32, 14, 18, 12, 10, 40, 12)
	return s.err
}

func writeYoY(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
	s := newSheet(f, SheetYoY)
	s.header(st, "Attribute", "Period", "Previous", "Current", "Previous value", "Current value", "Change", "% change", "Flag")
	if len(ds.YoY) == 0 {
		s.add("no comparable periods")
	}
	for _, y := range ds.YoY {
		var pct any = UndefinedPct
		flag := ""
		if y.Undefined {
			flag = "previous value is zero"
		} else if y.PctChange != nil {
			pct = *y.PctChange
		}
		row := s.add(y.Attribute, y.Current.Period.String(), y.Previous.String(), y.Current.String(),
			y.PreviousValue.InexactFloat64(), y.CurrentValue.InexactFloat64(), y.Delta.InexactFloat64(), pct, flag)
		s.style(row, 5, 7, st.money)
		if y.Undefined {
			s.style(row, 8, 9, st.flagged)
		} else {
			s.style(row, 8, 8, st.pct)
		}
	}
	s.widths(32, 10, 12, 12, 18, 18, 18, 12, 24)
	return s.err
}

func writeBreakdown(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
	s := newSheet(f, SheetBreakdown)
	s.header(st, "Kind", "Period", "Attribute", "Sum", "Mean", "Count", "Years")
	if len(ds.Breakdown) == 0 {
		s.add("no monthly or quarterly values")
	}
	for _, b := range ds.Breakdown {
		years := make([]string, len(b.Years))
		for i, y := range b.Years {
			years[i] = fmt.Sprint(y)
		}
		row := s.add(string(b.Period.Kind()), b.Period.String(), b.Attribute,
			b.Sum.InexactFloat64(), b.Mean.InexactFloat64(), b.Count, strings.Join(years, ", "))
		s.style(row, 4, 5, st.money)
	}
	s.widths(12, 10, 32, 18, 18, 8, 24)
	return s.err
}

func writeDocuments(f *excelize.File, st styles, ds model.ConsolidatedDataset) error {
	s := newSheet(f, SheetDocuments)
	s.header(st, "Document", "Status", "Period", "Period label", "Method", "Attributes",
		"Overall confidence", "Tier", "Reason", "Error", "Processed at", "Sequence")
	for _, d := range ds.Documents {
		period := ""
		if d.Resolved() {
			period = d.Period.String()
		}
		var conf any
		tier := ""
		if c, ok := d.OverallConfidence(); ok {
			conf = c
			tier = string(scorer.Tier(c))
		}
		processed := ""
		if !d.ProcessedAt.IsZero() {
			processed = d.ProcessedAt.UTC().Format(time.RFC3339)
		}
		row := s.add(d.DocumentID, string(d.Status), period, d.PeriodLabel, d.Method, len(d.Attributes),
			conf, tier, string(d.Reason), d.Error, processed, d.Sequence)
		s.style(row, 7, 7, st.conf)
		if d.Status == model.StatusFailed {
			s.style(row, 1, 2, st.flagged)
		}
	}
	s.widths(40, 10, 12, 28, 10, 10, 16, 8, 16, 48, 22, 18)
	return s.err
}

func writeQuality(f *excelize.File, st styles, ds model.ConsolidatedDataset, w config.WeightsConfig) error {
	s := newSheet(f, SheetQuality)
	q := ds.Quality

	s.title(st, "Confidence tiers")
	s.header(st, "Tier", "Documents", "Attributes")
	for _, t := range model.Tiers {
		s.add(string(t), q.TierCounts[t], q.AttributeTierCounts[t])
	}
	row := s.add("Overall confidence", confidenceCell(q.OverallConfidence))
	s.style(row, 2, 2, st.conf)

	s.blank()
	s.title(st, "Document confidence")
	s.header(st, "Document", "Status", "Attributes", "Overall confidence", "Tier", "Note")
	for _, d := range q.Documents {
		note := ""
		if d.NoExtractable {
			note = noExtractable
		}
		row := s.add(d.DocumentID, string(d.Status), d.AttributeCount, confidenceCell(d.OverallConfidence), string(d.Tier), note)
		s.style(row, 4, 4, st.conf)
	}

	s.blank()
	s.title(st, "Attribute confidence")
	s.header(st, "Attribute", "Count", "Mean", "Min", "Max",
		"Text clarity", "Exact match", "Context match", "Format validity", "Parse failures")
	for _, a := range q.Attributes {
		row := s.add(a.Attribute, a.Count, a.MeanConfidence, a.MinConfidence, a.MaxConfidence,
			a.SignalMeans.TextClarity, a.SignalMeans.ExactMatch, a.SignalMeans.ContextMatch, a.SignalMeans.FormatValidity,
			a.ParseFailures)
		s.style(row, 3, 9, st.conf)
	}

	s.blank()
	s.title(st, "Failed documents")
	s.header(st, "Document", "Reason", "Error")
	if len(q.Failed) == 0 {
		s.add("none")
	}
	for _, d := range q.Failed {
		s.add(d.DocumentID, d.Reason, d.Error)
	}

	s.blank()
	s.title(st, "Unresolved periods")
	if len(q.Unresolved) == 0 {
		s.add("none")
	}
	for _, id := range q.Unresolved {
		s.add(id)
	}

	s.blank()
	s.title(st, "Confidence formula")
	s.header(st, "Signal", "Weight")
	s.add("Text clarity", w.TextClarity)
	s.add("Exact match", w.ExactMatch)
	s.add("Context match", w.ContextMatch)
	s.add("Format validity", w.FormatValidity)
	s.add("Formula", Formula(w))
	s.add("Tiers", fmt.Sprintf("high >= %.2f, medium >= %.2f, low below", scorer.HighThreshold, scorer.MediumThreshold))

	s.widths(32, 12, 12, 18, 12, 24, 12, 14, 16, 14)
	return s.err
}

// Formula renders the weighted sum used for confidence.
func Formula(w config.WeightsConfig) string {
	return fmt.Sprintf("confidence = %.2f*text_clarity + %.2f*exact_match + %.2f*context_match + %.2f*format_validity",
		w.TextClarity, w.ExactMatch, w.ContextMatch, w.FormatValidity)
}

func confidenceCell(c *float64) any {
	if c == nil {
		return "n/a"
	}
	return *c
}
