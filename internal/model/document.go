package model

import (
	"sort"
	"time"
)

// DocumentRef points at one input document in a source.
type DocumentRef struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// TextBlock is one contiguous run of document text with a best-effort
// section label.
type TextBlock struct {
	Page         int    `json:"page"`
	SectionLabel string `json:"section_label"`
	Text         string `json:"text"`
}

// Extraction is the text/layout extractor's output for one document. An
// empty Blocks slice always carries a Diagnostic and a Reason.
type Extraction struct {
	Blocks     []TextBlock   `json:"blocks"`
	Method     string        `json:"method"`
	PageCount  int           `json:"page_count"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Reason     FailureReason `json:"reason,omitempty"`
}

// Empty reports whether the extractor produced no usable text.
func (e Extraction) Empty() bool {
	return len(e.Blocks) == 0
}

// Proposal is the extraction model's answer for one document.
type Proposal struct {
	Candidates  []RawCandidate `json:"candidates"`
	PeriodLabel string         `json:"period_label,omitempty"`
}

// DocumentStatus is the outcome of processing one document.
type DocumentStatus string

const (
	StatusSuccess DocumentStatus = "success"
	StatusPartial DocumentStatus = "partial"
	StatusFailed  DocumentStatus = "failed"
)

// DocumentResult is the scored output of one document. Attributes absent
// from the map were not extracted, which is distinct from extracted with low
// confidence.
type DocumentResult struct {
	DocumentID  string                     `json:"document_id"`
	Period      *PeriodKey                 `json:"period"`
	PeriodLabel string                     `json:"period_label,omitempty"`
	Attributes  map[string]ScoredAttribute `json:"attributes"`
	Status      DocumentStatus             `json:"status"`
	Reason      FailureReason              `json:"reason,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Method      string                     `json:"extraction_method,omitempty"`
	Sequence    int64                      `json:"sequence"`
	ProcessedAt time.Time                  `json:"processed_at"`
}

// Resolved reports whether the document's period is known.
func (r DocumentResult) Resolved() bool {
	return r.Period != nil && r.Period.Period.Valid()
}

// Usable reports whether the document contributes to consolidation.
func (r DocumentResult) Usable() bool {
	return (r.Status == StatusSuccess || r.Status == StatusPartial) && r.Resolved()
}

// OverallConfidence is the mean confidence of the scored attributes. The
// second return is false when there are none.
func (r DocumentResult) OverallConfidence() (float64, bool) {
	if len(r.Attributes) == 0 {
		return 0, false
	}
	// Summed in name order so repeated calls agree to the last bit.
	names := make([]string, 0, len(r.Attributes))
	for name := range r.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	var sum float64
	for _, name := range names {
		sum += r.Attributes[name].Confidence
	}
	return sum / float64(len(r.Attributes)), true
}

// Failed builds a failed result for id.
func Failed(id string, reason FailureReason, err error) DocumentResult {
	res := DocumentResult{
		DocumentID: id,
		Status:     StatusFailed,
		Reason:     reason,
		Attributes: map[string]ScoredAttribute{},
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}
