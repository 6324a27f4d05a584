// Package report renders consolidated results: one JSON record per document
// and the consolidated Excel workbook.
package report

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/model"
)

// DocumentMetadata is the envelope written ahead of a document's attributes.
type DocumentMetadata struct {
	DocumentID        string               `json:"document_id"`
	ProcessedAt       time.Time            `json:"processing_timestamp"`
	Sequence          int64                `json:"sequence"`
	Status            model.DocumentStatus `json:"status"`
	Reason            model.FailureReason  `json:"reason,omitempty"`
	Error             string               `json:"error,omitempty"`
	Period            *model.PeriodKey     `json:"period"`
	PeriodLabel       string               `json:"period_label,omitempty"`
	ExtractionMethod  string               `json:"extraction_method,omitempty"`
	AttributeCount    int                  `json:"attribute_count"`
	OverallConfidence *float64             `json:"overall_confidence"`
}

// DocumentJSON is the stored form of one DocumentResult.
type DocumentJSON struct {
	Metadata   DocumentMetadata                 `json:"metadata"`
	Attributes map[string]model.ScoredAttribute `json:"attributes"`
}

// MarshalDocument encodes r as an indented DocumentJSON.
func MarshalDocument(r model.DocumentResult) ([]byte, error) {
	doc := DocumentJSON{
		Metadata: DocumentMetadata{
			DocumentID:       r.DocumentID,
			ProcessedAt:      r.ProcessedAt,
			Sequence:         r.Sequence,
			Status:           r.Status,
			Reason:           r.Reason,
			Error:            r.Error,
			Period:           r.Period,
			PeriodLabel:      r.PeriodLabel,
			ExtractionMethod: r.Method,
			AttributeCount:   len(r.Attributes),
		},
		Attributes: r.Attributes,
	}
	if doc.Attributes == nil {
		doc.Attributes = map[string]model.ScoredAttribute{}
	}
	if c, ok := r.OverallConfidence(); ok {
		doc.Metadata.OverallConfidence = &c
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, eris.Wrapf(err, "report: encode %s", r.DocumentID)
	}
	return b, nil
}

// UnmarshalDocument decodes a stored DocumentJSON back into a result.
func UnmarshalDocument(b []byte) (model.DocumentResult, error) {
	var doc DocumentJSON
	if err := json.Unmarshal(b, &doc); err != nil {
		return model.DocumentResult{}, eris.Wrap(err, "report: decode document")
	}
	m := doc.Metadata
	if m.DocumentID == "" {
		return model.DocumentResult{}, eris.New("report: document record has no document_id")
	}
	switch m.Status {
	case model.StatusSuccess, model.StatusPartial, model.StatusFailed:
	default:
		return model.DocumentResult{}, eris.Errorf("report: %s has unknown status %q", m.DocumentID, m.Status)
	}
	attrs := doc.Attributes
	if attrs == nil {
		attrs = map[string]model.ScoredAttribute{}
	}
	return model.DocumentResult{
		DocumentID:  m.DocumentID,
		Period:      m.Period,
		PeriodLabel: m.PeriodLabel,
		Attributes:  attrs,
		Status:      m.Status,
		Reason:      m.Reason,
		Error:       m.Error,
		Method:      m.ExtractionMethod,
		Sequence:    m.Sequence,
		ProcessedAt: m.ProcessedAt,
	}, nil
}
