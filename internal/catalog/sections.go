package catalog

import (
	"sort"
	"strings"
)

// Canonical section names.
const (
	SectionIncome   = "income_statement"
	SectionBalance  = "balance_sheet"
	SectionCashFlow = "cash_flow"
	SectionEquity   = "equity"
	SectionNotes    = "notes"
	SectionMDA      = "mda"
	SectionSummary  = "summary"
)

var sectionAliases = map[string]string{
	"income statement":                    SectionIncome,
	"income statements":                   SectionIncome,
	"statement of income":                 SectionIncome,
	"statements of income":                SectionIncome,
	"statement of operations":             SectionIncome,
	"statements of operations":            SectionIncome,
	"statement of earnings":               SectionIncome,
	"statement of comprehensive income":   SectionIncome,
	"profit and loss":                     SectionIncome,
	"profit loss":                         SectionIncome,
	"p l":                                 SectionIncome,
	"balance sheet":                       SectionBalance,
	"balance sheets":                      SectionBalance,
	"statement of financial position":     SectionBalance,
	"statements of financial position":    SectionBalance,
	"financial position":                  SectionBalance,
	"cash flow":                           SectionCashFlow,
	"cash flows":                          SectionCashFlow,
	"statement of cash flows":             SectionCashFlow,
	"statements of cash flows":            SectionCashFlow,
	"cash flow statement":                 SectionCashFlow,
	"changes in equity":                   SectionEquity,
	"stockholders equity":                 SectionEquity,
	"shareholders equity":                 SectionEquity,
	"statement of changes in equity":      SectionEquity,
	"notes":                               SectionNotes,
	"note":                                SectionNotes,
	"footnotes":                           SectionNotes,
	"footnote":                            SectionNotes,
	"notes to financial statements":       SectionNotes,
	"notes to the financial statements":   SectionNotes,
	"management discussion and analysis":  SectionMDA,
	"managements discussion and analysis": SectionMDA,
	"md a":                                SectionMDA,
	"mda":                                 SectionMDA,
	"summary":                             SectionSummary,
	"highlights":                          SectionSummary,
	"financial highlights":                SectionSummary,
	"selected financial data":             SectionSummary,
	"key figures":                         SectionSummary,
}

// PrimaryStatements are the four core financial statements.
var PrimaryStatements = map[string]bool{
	SectionIncome: true, SectionBalance: true, SectionCashFlow: true, SectionEquity: true,
}

// aliasesByLength lets CanonicalSection prefer the most specific alias.
var aliasesByLength = func() []string {
	out := make([]string, 0, len(sectionAliases))
	for a := range sectionAliases {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}()

// CanonicalSection maps a printed section heading to a canonical section
// name. Canonical names map to themselves. Unknown headings return "".
func CanonicalSection(label string) string {
	f := Fold(label)
	if f == "" {
		return ""
	}
	if c := strings.ReplaceAll(f, " ", "_"); c == SectionIncome || c == SectionBalance ||
		c == SectionCashFlow || c == SectionEquity || c == SectionNotes || c == SectionMDA || c == SectionSummary {
		return c
	}
	if c, ok := sectionAliases[f]; ok {
		return c
	}
	for _, a := range aliasesByLength {
		if strings.Contains(" "+f+" ", " "+a+" ") {
			return sectionAliases[a]
		}
	}
	return ""
}
