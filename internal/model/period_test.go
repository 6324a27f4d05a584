package model

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		period Period
		want   string
	}{
		{PeriodM1, "M1"},
		{PeriodM12, "M12"},
		{PeriodQ1, "Q1"},
		{PeriodQ4, "Q4"},
		{PeriodAnnual, "annual"},
		{PeriodUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.period.String())
		})
	}
}

func TestPeriod_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindMonthly, Month(7).Kind())
	assert.Equal(t, KindQuarterly, Quarter(2).Kind())
	assert.Equal(t, KindAnnual, PeriodAnnual.Kind())
	assert.Equal(t, PeriodKind(""), PeriodUnknown.Kind())
	assert.True(t, Month(1).SubAnnual())
	assert.True(t, Quarter(4).SubAnnual())
	assert.False(t, PeriodAnnual.SubAnnual())
}

func TestMonthQuarter_OutOfRange(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PeriodUnknown, Month(0))
	assert.Equal(t, PeriodUnknown, Month(13))
	assert.Equal(t, PeriodUnknown, Quarter(5))
	assert.False(t, Month(13).Valid())
}

func TestParsePeriodName_RoundTrip(t *testing.T) {
	t.Parallel()

	for p := PeriodM1; p <= PeriodAnnual; p++ {
		got, err := ParsePeriodName(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePeriodName("H1")
	assert.Error(t, err)
	_, err = ParsePeriodName("Q5")
	assert.Error(t, err)
}

func TestPeriodKey_Ordering(t *testing.T) {
	t.Parallel()

	keys := []PeriodKey{
		{Year: 2023, Period: PeriodAnnual},
		{Year: 2022, Period: PeriodQ3},
		{Year: 2023, Period: PeriodQ1},
		{Year: 2023, Period: PeriodM2},
		{Year: 2022, Period: PeriodAnnual},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	assert.Equal(t, []PeriodKey{
		{Year: 2022, Period: PeriodQ3},
		{Year: 2022, Period: PeriodAnnual},
		{Year: 2023, Period: PeriodM2},
		{Year: 2023, Period: PeriodQ1},
		{Year: 2023, Period: PeriodAnnual},
	}, keys)

	a := PeriodKey{Year: 2023, Period: PeriodQ1}
	assert.Equal(t, 0, a.Compare(PeriodKey{Year: 2023, Period: PeriodQ1}))
	assert.Equal(t, -1, a.Compare(PeriodKey{Year: 2023, Period: PeriodQ2}))
	assert.Equal(t, 1, a.Compare(PeriodKey{Year: 2022, Period: PeriodAnnual}))
}

func TestPeriodKey_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Q1-2023", PeriodKey{Year: 2023, Period: PeriodQ1}.String())
	assert.Equal(t, "M3-2024", PeriodKey{Year: 2024, Period: PeriodM3}.String())
	assert.Equal(t, "FY2022", PeriodKey{Year: 2022, Period: PeriodAnnual}.String())
}

func TestPeriodKey_JSON(t *testing.T) {
	t.Parallel()

	in := PeriodKey{Year: 2023, Period: PeriodQ2}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"year":2023,"period":"Q2"}`, string(b))

	var out PeriodKey
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	err = json.Unmarshal([]byte(`{"year":2023,"period":"H2"}`), &out)
	assert.Error(t, err)
}
