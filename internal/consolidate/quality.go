package consolidate

import (
	"math"
	"sort"

	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/scorer"
)

// Quality builds the data-quality report. A document's overall confidence
// is the mean of its attribute confidences; documents without attributes
// are listed as having none and stay out of every average.
func Quality(results []model.DocumentResult) model.QualityReport {
	rep := model.QualityReport{
		TierCounts:          zeroTiers(),
		AttributeTierCounts: zeroTiers(),
		Failed:              []model.DocumentQuality{},
		Partial:             []string{},
		Unresolved:          []string{},
		NoExtractable:       []string{},
	}

	type agg struct {
		n             int
		sum, min, max float64
		signals       model.ConfidenceBreakdown
		parseFailures int
	}
	attrs := make(map[string]*agg)

	var docSum float64
	var docN int

	for _, r := range results {
		dq := model.DocumentQuality{
			DocumentID:     r.DocumentID,
			Status:         r.Status,
			Period:         r.Period,
			AttributeCount: len(r.Attributes),
			Reason:         string(r.Reason),
			Error:          r.Error,
		}
		if c, ok := r.OverallConfidence(); ok {
			dq.OverallConfidence = &c
			dq.Tier = scorer.Tier(c)
			rep.TierCounts[dq.Tier]++
			docSum += c
			docN++
		} else if r.Status != model.StatusFailed {
			dq.NoExtractable = true
			rep.NoExtractable = append(rep.NoExtractable, r.DocumentID)
		}
		rep.Documents = append(rep.Documents, dq)

		switch r.Status {
		case model.StatusFailed:
			rep.Failed = append(rep.Failed, dq)
			continue
		case model.StatusPartial:
			rep.Partial = append(rep.Partial, r.DocumentID)
		}
		if !r.Resolved() {
			rep.Unresolved = append(rep.Unresolved, r.DocumentID)
		}

		for name, a := range r.Attributes {
			g, ok := attrs[name]
			if !ok {
				g = &agg{min: math.Inf(1), max: math.Inf(-1)}
				attrs[name] = g
			}
			g.n++
			g.sum += a.Confidence
			g.min = math.Min(g.min, a.Confidence)
			g.max = math.Max(g.max, a.Confidence)
			g.signals.TextClarity += a.Breakdown.TextClarity
			g.signals.ExactMatch += a.Breakdown.ExactMatch
			g.signals.ContextMatch += a.Breakdown.ContextMatch
			g.signals.FormatValidity += a.Breakdown.FormatValidity
			if !a.Value.ParseSucceeded {
				g.parseFailures++
			}
			rep.AttributeTierCounts[scorer.Tier(a.Confidence)]++
		}
	}

	if docN > 0 {
		avg := docSum / float64(docN)
		rep.OverallConfidence = &avg
	}

	for name, g := range attrs {
		n := float64(g.n)
		rep.Attributes = append(rep.Attributes, model.AttributeQuality{
			Attribute:      name,
			Count:          g.n,
			MeanConfidence: g.sum / n,
			MinConfidence:  g.min,
			MaxConfidence:  g.max,
			SignalMeans: model.ConfidenceBreakdown{
				TextClarity:    g.signals.TextClarity / n,
				ExactMatch:     g.signals.ExactMatch / n,
				ContextMatch:   g.signals.ContextMatch / n,
				FormatValidity: g.signals.FormatValidity / n,
			},
			ParseFailures: g.parseFailures,
		})
	}

	sort.Slice(rep.Documents, func(i, j int) bool { return rep.Documents[i].DocumentID < rep.Documents[j].DocumentID })
	sort.Slice(rep.Failed, func(i, j int) bool { return rep.Failed[i].DocumentID < rep.Failed[j].DocumentID })
	sort.Slice(rep.Attributes, func(i, j int) bool { return rep.Attributes[i].Attribute < rep.Attributes[j].Attribute })
	sort.Strings(rep.Partial)
	sort.Strings(rep.Unresolved)
	sort.Strings(rep.NoExtractable)
	return rep
}

func zeroTiers() map[model.QualityTier]int {
	m := make(map[model.QualityTier]int, len(model.Tiers))
	for _, t := range model.Tiers {
		m[t] = 0
	}
	return m
}
