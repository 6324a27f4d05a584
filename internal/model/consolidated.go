package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ValueKey addresses one cell of the consolidated projection.
type ValueKey struct {
	Attribute string    `json:"attribute"`
	Period    PeriodKey `json:"period"`
}

// ConsolidatedValue is the winning claim for a ValueKey.
type ConsolidatedValue struct {
	Value      decimal.Decimal `json:"value"`
	Confidence float64         `json:"confidence"`
	DocumentID string          `json:"document_id"`
	Sequence   int64           `json:"sequence"`
	// Contenders counts every document that claimed the key.
	Contenders int `json:"contenders"`
}

// YoYRow compares one attribute across consecutive years of the same period.
// PctChange is nil and Undefined is set when the previous value is zero.
type YoYRow struct {
	Attribute     string          `json:"attribute"`
	Previous      PeriodKey       `json:"previous"`
	Current       PeriodKey       `json:"current"`
	PreviousValue decimal.Decimal `json:"previous_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	Delta         decimal.Decimal `json:"delta"`
	PctChange     *float64        `json:"pct_change"`
	Undefined     bool            `json:"pct_undefined,omitempty"`
}

// BreakdownRow aggregates one attribute over a sub-annual period across years.
type BreakdownRow struct {
	Period    Period          `json:"period"`
	Attribute string          `json:"attribute"`
	Sum       decimal.Decimal `json:"sum"`
	Mean      decimal.Decimal `json:"mean"`
	Count     int             `json:"count"`
	Years     []int           `json:"years"`
}

// DocumentQuality is one row of the per-document quality view.
type DocumentQuality struct {
	DocumentID        string         `json:"document_id"`
	Status            DocumentStatus `json:"status"`
	Period            *PeriodKey     `json:"period"`
	AttributeCount    int            `json:"attribute_count"`
	OverallConfidence *float64       `json:"overall_confidence"`
	Tier              QualityTier    `json:"tier,omitempty"`
	// NoExtractable marks documents that produced no scored attributes.
	NoExtractable bool   `json:"no_extractable_attributes,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AttributeQuality summarizes confidence for one attribute across documents.
type AttributeQuality struct {
	Attribute      string              `json:"attribute"`
	Count          int                 `json:"count"`
	MeanConfidence float64             `json:"mean_confidence"`
	MinConfidence  float64             `json:"min_confidence"`
	MaxConfidence  float64             `json:"max_confidence"`
	SignalMeans    ConfidenceBreakdown `json:"signal_means"`
	ParseFailures  int                 `json:"parse_failures"`
}

// QualityReport is the data-quality view of a consolidation run.
type QualityReport struct {
	Documents  []DocumentQuality  `json:"documents"`
	Attributes []AttributeQuality `json:"attributes"`
	// TierCounts counts documents by the tier of their overall confidence.
	TierCounts map[QualityTier]int `json:"tier_counts"`
	// AttributeTierCounts counts scored attributes by tier.
	AttributeTierCounts map[QualityTier]int `json:"attribute_tier_counts"`
	OverallConfidence   *float64            `json:"overall_confidence"`
	Failed              []DocumentQuality   `json:"failed"`
	Partial             []string            `json:"partial"`
	Unresolved          []string            `json:"unresolved"`
	NoExtractable       []string            `json:"no_extractable"`
}

// ConsolidatedDataset is rebuilt wholesale on every consolidation run.
type ConsolidatedDataset struct {
	Documents []DocumentResult               `json:"documents"`
	Values    map[ValueKey]ConsolidatedValue `json:"-"`
	YoY       []YoYRow                       `json:"yoy"`
	Breakdown []BreakdownRow                 `json:"breakdown"`
	Quality   QualityReport                  `json:"quality"`
}

// Keys returns the projection keys ordered by attribute, then period.
func (d *ConsolidatedDataset) Keys() []ValueKey {
	keys := make([]ValueKey, 0, len(d.Values))
	for k := range d.Values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Attribute != keys[j].Attribute {
			return keys[i].Attribute < keys[j].Attribute
		}
		return keys[i].Period.Less(keys[j].Period)
	})
	return keys
}

// Periods returns the distinct periods present in the projection, ascending.
func (d *ConsolidatedDataset) Periods() []PeriodKey {
	seen := make(map[PeriodKey]struct{})
	var out []PeriodKey
	for k := range d.Values {
		if _, ok := seen[k.Period]; ok {
			continue
		}
		seen[k.Period] = struct{}{}
		out = append(out, k.Period)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Attributes returns the distinct attribute names in the projection, sorted.
func (d *ConsolidatedDataset) Attributes() []string {
	seen := make(map[string]struct{})
	var out []string
	for k := range d.Values {
		if _, ok := seen[k.Attribute]; ok {
			continue
		}
		seen[k.Attribute] = struct{}{}
		out = append(out, k.Attribute)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the consolidated value for attribute at period.
func (d *ConsolidatedDataset) Lookup(attribute string, period PeriodKey) (ConsolidatedValue, bool) {
	v, ok := d.Values[ValueKey{Attribute: attribute, Period: period}]
	return v, ok
}
