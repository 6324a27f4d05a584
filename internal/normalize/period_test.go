package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/model"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  model.PeriodKey
	}{
		{"Q1-2023", model.PeriodKey{Year: 2023, Period: model.PeriodQ1}},
		{"acme_q3_2022.pdf", model.PeriodKey{Year: 2022, Period: model.PeriodQ3}},
		{"2023Q2", model.PeriodKey{Year: 2023, Period: model.PeriodQ2}},
		{"4Q 2021 earnings", model.PeriodKey{Year: 2021, Period: model.PeriodQ4}},
		{"Second Quarter 2024", model.PeriodKey{Year: 2024, Period: model.PeriodQ2}},
		{"3rd quarter 2020", model.PeriodKey{Year: 2020, Period: model.PeriodQ3}},
		{"Quarter ended March 31, 2023", model.PeriodKey{Year: 2023, Period: model.PeriodQ1}},
		{"Three months ended September 30, 2022", model.PeriodKey{Year: 2022, Period: model.PeriodQ3}},
		{"March 2023", model.PeriodKey{Year: 2023, Period: model.PeriodM3}},
		{"statement_sept_2022.pdf", model.PeriodKey{Year: 2022, Period: model.PeriodM9}},
		{"report_2023_03.pdf", model.PeriodKey{Year: 2023, Period: model.PeriodM3}},
		{"11-2021 statement", model.PeriodKey{Year: 2021, Period: model.PeriodM11}},
		{"M07 2023", model.PeriodKey{Year: 2023, Period: model.PeriodM7}},
		{"2023", model.PeriodKey{Year: 2023, Period: model.PeriodAnnual}},
		{"FY2022 annual report.pdf", model.PeriodKey{Year: 2022, Period: model.PeriodAnnual}},
		{"FY23", model.PeriodKey{Year: 2023, Period: model.PeriodAnnual}},
		{"For the year ended December 31, 2023", model.PeriodKey{Year: 2023, Period: model.PeriodAnnual}},
		{"acme_2023_10-K.pdf", model.PeriodKey{Year: 2023, Period: model.PeriodAnnual}},
		{"December 31, 2023", model.PeriodKey{Year: 2023, Period: model.PeriodAnnual}},
		{"balance_sheet_31_dec_2022.pdf", model.PeriodKey{Year: 2022, Period: model.PeriodAnnual}},
		{"M12 31 December 2023", model.PeriodKey{Year: 2023, Period: model.PeriodM12}},
		{"Q4 December 31, 2023", model.PeriodKey{Year: 2023, Period: model.PeriodQ4}},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			got, ok := ParsePeriod(tt.label)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriod_Unresolved(t *testing.T) {
	t.Parallel()

	for _, label := range []string{
		"",
		"balance_sheet.pdf",
		"Q1 results",
		"2022 vs 2023 comparison",
		"H1 2023",
		"six months ended June 30, 2023",
		"invoice_20230331.pdf",
		"q5 2023",
		"M13 2023",
		"Q0_2021.pdf",
		"m00 2022",
	} {
		t.Run(label, func(t *testing.T) {
			t.Parallel()
			_, ok := ParsePeriod(label)
			assert.False(t, ok)
		})
	}
}

func TestResolvePeriod(t *testing.T) {
	t.Parallel()

	k, used := ResolvePeriod("", "unknown", "acme_q2_2023.pdf", "FY2020")
	require.NotNil(t, k)
	assert.Equal(t, model.PeriodKey{Year: 2023, Period: model.PeriodQ2}, *k)
	assert.Equal(t, "acme_q2_2023.pdf", used)

	k, used = ResolvePeriod("nothing here")
	assert.Nil(t, k)
	assert.Empty(t, used)

	var pf *model.ParseFailure
	assert.ErrorAs(t, PeriodFailure("nothing here"), &pf)
}
