// Package catalog holds the attribute catalog the extraction model is asked
// to fill and the signal evaluators score against.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/finextract/internal/model"
)

// Attribute describes one named financial attribute.
type Attribute struct {
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description,omitempty"`
	ExpectedUnit    string   `yaml:"expected_unit" json:"expected_unit,omitempty"`
	ExpectedSection string   `yaml:"expected_section" json:"expected_section,omitempty"`
	RelatedSections []string `yaml:"related_sections" json:"related_sections,omitempty"`
	Synonyms        []string `yaml:"synonyms" json:"synonyms,omitempty"`
	// Required is informational. catalog validate lists it; it does not
	// change document status or scoring.
	Required bool `yaml:"required" json:"required,omitempty"`
}

// Catalog is an ordered, validated set of attributes.
type Catalog struct {
	attrs  []Attribute
	byName map[string]int
	byFold map[string]int
}

// Units lists the expected_unit values the catalog accepts.
var Units = []string{"", "currency", "USD", "EUR", "GBP", "INR", "JPY", "percent", "ratio", "count", "number"}

type file struct {
	Attributes []Attribute `yaml:"attributes"`
}

// New validates attrs and builds a Catalog.
func New(attrs []Attribute) (*Catalog, error) {
	c := &Catalog{
		attrs:  attrs,
		byName: make(map[string]int, len(attrs)),
		byFold: make(map[string]int, len(attrs)),
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a catalog from a YAML or XLSX file, chosen by extension.
func Load(path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		attrs, err := readXLSX(path)
		if err != nil {
			return nil, err
		}
		return New(attrs)
	case ".yaml", ".yml", "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: read %s", path)
		}
		return Parse(data)
	default:
		return nil, &model.ConfigurationError{Problems: []string{fmt.Sprintf("catalog: unsupported file type %q", filepath.Ext(path))}}
	}
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &model.ConfigurationError{Problems: []string{"catalog: malformed yaml: " + err.Error()}}
	}
	return New(f.Attributes)
}

func (c *Catalog) validate() error {
	var problems []string
	if len(c.attrs) == 0 {
		problems = append(problems, "catalog has no attributes")
	}
	units := make(map[string]bool, len(Units))
	for _, u := range Units {
		units[strings.ToLower(u)] = true
	}
	for i := range c.attrs {
		a := &c.attrs[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" {
			problems = append(problems, fmt.Sprintf("attribute %d has no name", i+1))
			continue
		}
		if _, dup := c.byName[a.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate attribute %q", a.Name))
			continue
		}
		key := Fold(a.Name)
		if j, dup := c.byFold[key]; dup {
			problems = append(problems, fmt.Sprintf("attribute %q collides with %q", a.Name, c.attrs[j].Name))
			continue
		}
		if !units[strings.ToLower(a.ExpectedUnit)] {
			problems = append(problems, fmt.Sprintf("attribute %q has unknown expected_unit %q", a.Name, a.ExpectedUnit))
		}
		c.byName[a.Name] = i
		c.byFold[key] = i
	}
	if len(problems) > 0 {
		return &model.ConfigurationError{Problems: problems}
	}
	return nil
}

// Attributes returns the attributes in catalog order.
func (c *Catalog) Attributes() []Attribute {
	out := make([]Attribute, len(c.attrs))
	copy(out, c.attrs)
	return out
}

// Names returns the attribute names in catalog order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.attrs))
	for i, a := range c.attrs {
		out[i] = a.Name
	}
	return out
}

// Len returns the number of attributes.
func (c *Catalog) Len() int { return len(c.attrs) }

// Lookup finds an attribute by exact name, then by folded name
// ("total revenue" finds "TotalRevenue").
func (c *Catalog) Lookup(name string) (Attribute, bool) {
	if i, ok := c.byName[strings.TrimSpace(name)]; ok {
		return c.attrs[i], true
	}
	if i, ok := c.byFold[Fold(name)]; ok {
		return c.attrs[i], true
	}
	return Attribute{}, false
}

// Missing returns the catalog names absent from present, sorted.
func (c *Catalog) Missing(present map[string]model.ScoredAttribute) []string {
	var out []string
	for _, a := range c.attrs {
		if _, ok := present[a.Name]; !ok {
			out = append(out, a.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Default returns the built-in catalog used when no catalog path is set.
func Default() *Catalog {
	c, err := New([]Attribute{
		{
			Name: "TotalRevenue", Description: "Total revenue or net sales for the period",
			ExpectedUnit: "currency", ExpectedSection: "income_statement", RelatedSections: []string{"summary", "mda"},
			Synonyms: []string{"Revenue", "Net Sales", "Total Net Revenue", "Sales", "Turnover"}, Required: true,
		},
		{
			Name: "NetIncome", Description: "Net income attributable to the company",
			ExpectedUnit: "currency", ExpectedSection: "income_statement", RelatedSections: []string{"cash_flow", "summary"},
			Synonyms: []string{"Net Profit", "Net Earnings", "Profit for the period", "Net Income (Loss)"}, Required: true,
		},
		{
			Name: "OperatingExpenses", Description: "Total operating expenses",
			ExpectedUnit: "currency", ExpectedSection: "income_statement",
			Synonyms: []string{"Total Operating Expenses", "Operating Costs", "OpEx"},
		},
		{
			Name: "TotalAssets", Description: "Total assets at period end",
			ExpectedUnit: "currency", ExpectedSection: "balance_sheet",
			Synonyms: []string{"Assets, Total"}, Required: true,
		},
		{
			Name: "TotalLiabilities", Description: "Total liabilities at period end",
			ExpectedUnit: "currency", ExpectedSection: "balance_sheet",
			Synonyms: []string{"Liabilities, Total"}, Required: true,
		},
		{
			Name: "ShareholdersEquity", Description: "Total shareholders' equity at period end",
			ExpectedUnit: "currency", ExpectedSection: "balance_sheet", RelatedSections: []string{"equity"},
			Synonyms: []string{"Total Equity", "Stockholders' Equity", "Total Shareholders' Equity"},
		},
		{
			Name: "CashAndEquivalents", Description: "Cash and cash equivalents at period end",
			ExpectedUnit: "currency", ExpectedSection: "balance_sheet", RelatedSections: []string{"cash_flow"},
			Synonyms: []string{"Cash and Cash Equivalents", "Cash"},
		},
		{
			Name: "OperatingCashFlow", Description: "Net cash provided by operating activities",
			ExpectedUnit: "currency", ExpectedSection: "cash_flow",
			Synonyms: []string{"Net Cash from Operating Activities", "Cash Flow from Operations"},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
