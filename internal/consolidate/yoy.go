package consolidate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/sells-group/finextract/internal/model"
)

// YearOverYear compares each attribute's value in one period with the same
// period of the previous year. Pairs missing either year are omitted. A zero
// previous value leaves PctChange nil and sets Undefined.
func YearOverYear(values map[model.ValueKey]model.ConsolidatedValue) []model.YoYRow {
	var rows []model.YoYRow
	for key, cur := range values {
		prevKey := model.ValueKey{
			Attribute: key.Attribute,
			Period:    model.PeriodKey{Year: key.Period.Year - 1, Period: key.Period.Period},
		}
		prev, ok := values[prevKey]
		if !ok {
			continue
		}
		rows = append(rows, yoyRow(key.Attribute, prevKey.Period, key.Period, prev.Value, cur.Value))
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Attribute != b.Attribute {
			return a.Attribute < b.Attribute
		}
		if a.Current.Period != b.Current.Period {
			return a.Current.Period < b.Current.Period
		}
		return a.Current.Year < b.Current.Year
	})
	return rows
}

func yoyRow(attr string, prevKey, curKey model.PeriodKey, prev, cur decimal.Decimal) model.YoYRow {
	delta := cur.Sub(prev)
	row := model.YoYRow{
		Attribute:     attr,
		Previous:      prevKey,
		Current:       curKey,
		PreviousValue: prev,
		CurrentValue:  cur,
		Delta:         delta,
	}
	if prev.IsZero() {
		row.Undefined = true
		return row
	}
	pct := delta.Div(prev.Abs()).InexactFloat64()
	row.PctChange = &pct
	return row
}
