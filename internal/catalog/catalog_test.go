package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/finextract/internal/model"
)

const sampleYAML = `
attributes:
  - name: TotalRevenue
    expected_unit: currency
    expected_section: income_statement
    related_sections: [summary]
    synonyms: [Revenue, Net Sales]
    required: true
  - name: NetIncome
    expected_unit: USD
    expected_section: income_statement
`

func TestParse(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"TotalRevenue", "NetIncome"}, c.Names())

	a, ok := c.Lookup("TotalRevenue")
	require.True(t, ok)
	assert.Equal(t, []string{"Revenue", "Net Sales"}, a.Synonyms)
	assert.True(t, a.Required)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "attributes: []", "no attributes"},
		{"missing name", "attributes:\n  - expected_unit: USD", "has no name"},
		{"duplicate", "attributes:\n  - name: A\n  - name: A", "duplicate attribute"},
		{"fold collision", "attributes:\n  - name: NetIncome\n  - name: net income", "collides with"},
		{"bad unit", "attributes:\n  - name: A\n    expected_unit: furlongs", "unknown expected_unit"},
		{"malformed", "attributes: [", "malformed yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, model.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLookup_Folded(t *testing.T) {
	t.Parallel()

	c := Default()
	for _, name := range []string{"NetIncome", "net income", "Net-Income", " NET INCOME "} {
		a, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "NetIncome", a.Name)
	}
	_, ok := c.Lookup("Goodwill")
	assert.False(t, ok)
}

func TestMissing(t *testing.T) {
	t.Parallel()

	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	missing := c.Missing(map[string]model.ScoredAttribute{"TotalRevenue": {}})
	assert.Equal(t, []string{"NetIncome"}, missing)
}

func TestFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"TotalRevenue", "total revenue"},
		{"Total Revenue:", "total revenue"},
		{"Shareholders' Équity", "shareholders equity"},
		{"  Net   income (loss) ", "net income loss"},
		{"EBITDA", "ebitda"},
		{"Q4Revenue", "q4 revenue"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "catalog.csv"))
	assert.True(t, model.IsConfigurationError(err))
}

func TestLoad_XLSX(t *testing.T) {
	t.Parallel()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Catalog")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{"Name", "Expected_Unit", "Expected_Section", "Synonyms", "Required"},
		{"TotalAssets", "currency", "balance_sheet", "Assets, Total; Total assets", "yes"},
		{"", "", "", "", ""},
		{"GrossMargin", "percent", "income_statement", "Gross margin", ""},
	} {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.Save(path))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TotalAssets", "GrossMargin"}, c.Names())

	a, ok := c.Lookup("TotalAssets")
	require.True(t, ok)
	assert.Equal(t, []string{"Assets, Total", "Total assets"}, a.Synonyms)
	assert.True(t, a.Required)
	assert.Equal(t, "balance_sheet", a.ExpectedSection)

	g, _ := c.Lookup("GrossMargin")
	assert.False(t, g.Required)
	assert.Equal(t, []string{"Gross margin"}, g.Synonyms)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	assert.GreaterOrEqual(t, c.Len(), 4)
	for _, a := range c.Attributes() {
		assert.NotEmpty(t, a.ExpectedSection, a.Name)
		assert.NotEmpty(t, a.Synonyms, a.Name)
	}
}
