package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  string
	}{
		{"Consolidated Statements of Operations", SectionIncome},
		{"INCOME STATEMENT", SectionIncome},
		{"income_statement", SectionIncome},
		{"Balance Sheet", SectionBalance},
		{"Statement of Cash Flows", SectionCashFlow},
		{"Notes to the Financial Statements", SectionNotes},
		{"Management's Discussion and Analysis", SectionMDA},
		{"Financial Highlights", SectionSummary},
		{"Risk Factors", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CanonicalSection(tt.label))
		})
	}
}
