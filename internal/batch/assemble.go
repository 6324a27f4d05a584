package batch

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/normalize"
	"github.com/sells-group/finextract/internal/scorer"
)

// headerLines bounds how far into the first block period detection looks.
const headerLines = 10

// Assemble scores a proposal into a DocumentResult. Candidates for names
// outside the catalog are dropped; when the model proposes one attribute
// twice the more confident reading wins. A document missing any catalog
// attribute is partial, and absent attributes stay absent.
func Assemble(doc model.DocumentRef, ext model.Extraction, prop model.Proposal, cat *catalog.Catalog, sc *scorer.Scorer) model.DocumentResult {
	log := zap.L().With(zap.String("document_id", doc.ID))

	attrs := make(map[string]model.ScoredAttribute, len(prop.Candidates))
	for _, c := range prop.Candidates {
		attr, ok := cat.Lookup(c.AttributeName)
		if !ok {
			log.Debug("batch: ignoring attribute outside catalog", zap.String("attribute", c.AttributeName))
			continue
		}
		c.AttributeName = attr.Name
		if c.DocumentID == "" {
			c.DocumentID = doc.ID
		}
		scored := sc.ScoreCandidate(c, attr)
		if prev, dup := attrs[attr.Name]; dup && prev.Confidence >= scored.Confidence {
			continue
		}
		attrs[attr.Name] = scored
	}

	labels := []string{prop.PeriodLabel, doc.Name, doc.ID}
	if len(ext.Blocks) > 0 {
		lines := strings.Split(ext.Blocks[0].Text, "\n")
		if len(lines) > headerLines {
			lines = lines[:headerLines]
		}
		labels = append(labels, lines...)
	}
	period, label := normalize.ResolvePeriod(labels...)
	if period == nil {
		log.Info("batch: period unresolved", zap.String("period_label", prop.PeriodLabel))
	}

	status := model.StatusSuccess
	if missing := cat.Missing(attrs); len(missing) > 0 {
		status = model.StatusPartial
		log.Debug("batch: attributes not extracted", zap.Strings("missing", missing))
	}

	return model.DocumentResult{
		DocumentID:  doc.ID,
		Period:      period,
		PeriodLabel: label,
		Attributes:  attrs,
		Status:      status,
		Method:      ext.Method,
	}
}
