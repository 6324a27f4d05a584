package consolidate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/finextract/internal/model"
)

// Breakdown groups sub-annual values by period (M1..M12, Q1..Q4) across
// years and reports the sum and mean per attribute. Buckets with no values
// are absent.
func Breakdown(values map[model.ValueKey]model.ConsolidatedValue) []model.BreakdownRow {
	type bucket struct {
		period model.Period
		attr   string
	}
	sums := make(map[bucket]*model.BreakdownRow)

	for key, v := range values {
		if !key.Period.Period.SubAnnual() {
			continue
		}
		b := bucket{period: key.Period.Period, attr: key.Attribute}
		row, ok := sums[b]
		if !ok {
			row = &model.BreakdownRow{Period: b.period, Attribute: b.attr, Sum: decimal.Zero}
			sums[b] = row
		}
		row.Sum = row.Sum.Add(v.Value)
		row.Count++
		row.Years = append(row.Years, key.Period.Year)
	}

	rows := make([]model.BreakdownRow, 0, len(sums))
	for _, row := range sums {
		row.Mean = row.Sum.Div(decimal.NewFromInt(int64(row.Count)))
		sort.Ints(row.Years)
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Period != rows[j].Period {
			return rows[i].Period < rows[j].Period
		}
		return rows[i].Attribute < rows[j].Attribute
	})
	return rows
}
