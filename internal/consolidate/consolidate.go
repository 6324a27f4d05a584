// Package consolidate merges per-document results into one period-indexed
// dataset. It performs no I/O and never mutates its input.
package consolidate

import (
	"sort"

	"github.com/sells-group/finextract/internal/model"
)

// Consolidate rebuilds the dataset from results.
//
// Only success and partial documents with a resolved period feed the
// projection. When several documents claim the same (attribute, period) the
// strictly more confident value wins; equal confidences go to the higher
// sequence (the document processed later), then to the smaller document ID.
// The outcome does not depend on the order of results.
func Consolidate(results []model.DocumentResult) model.ConsolidatedDataset {
	docs := make([]model.DocumentResult, len(results))
	copy(docs, results)
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Sequence != docs[j].Sequence {
			return docs[i].Sequence < docs[j].Sequence
		}
		return docs[i].DocumentID < docs[j].DocumentID
	})

	values := Project(docs)
	return model.ConsolidatedDataset{
		Documents: docs,
		Values:    values,
		YoY:       YearOverYear(values),
		Breakdown: Breakdown(values),
		Quality:   Quality(docs),
	}
}

// Project builds the (attribute, period) projection from usable documents.
// Attributes whose value did not parse are left out.
func Project(results []model.DocumentResult) map[model.ValueKey]model.ConsolidatedValue {
	out := make(map[model.ValueKey]model.ConsolidatedValue)
	for _, r := range results {
		if !r.Usable() {
			continue
		}
		for name, a := range r.Attributes {
			v, ok := a.Numeric()
			if !ok {
				continue
			}
			key := model.ValueKey{Attribute: name, Period: *r.Period}
			claim := model.ConsolidatedValue{
				Value:      v,
				Confidence: a.Confidence,
				DocumentID: r.DocumentID,
				Sequence:   r.Sequence,
			}
			cur, exists := out[key]
			claim.Contenders = cur.Contenders + 1
			if !exists || wins(claim, cur) {
				out[key] = claim
				continue
			}
			cur.Contenders = claim.Contenders
			out[key] = cur
		}
	}
	return out
}

// wins reports whether a beats b under the tie-break rule.
func wins(a, b model.ConsolidatedValue) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Sequence != b.Sequence {
		return a.Sequence > b.Sequence
	}
	return a.DocumentID < b.DocumentID
}
