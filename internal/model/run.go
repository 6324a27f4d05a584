package model

import (
	"time"
)

// RunStatus represents the current state of a batch run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusComplete  RunStatus = "complete"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded batch run.
type Run struct {
	ID        string      `json:"id"`
	Source    string      `json:"source"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds the final outcome of a run.
type RunSummary struct {
	Documents         int      `json:"documents"`
	Succeeded         int      `json:"succeeded"`
	Partial           int      `json:"partial"`
	Failed            int      `json:"failed"`
	Unresolved        int      `json:"unresolved"`
	OverallConfidence *float64 `json:"overall_confidence,omitempty"`
	WorkbookKey       string   `json:"workbook_key,omitempty"`
	DocumentKeys      []string `json:"document_keys,omitempty"`
	DurationMs        int64    `json:"duration_ms"`
}

// DocumentRecord is the persisted summary of one DocumentResult.
type DocumentRecord struct {
	RunID             string         `json:"run_id"`
	DocumentID        string         `json:"document_id"`
	Status            DocumentStatus `json:"status"`
	Reason            string         `json:"reason,omitempty"`
	Error             string         `json:"error,omitempty"`
	Period            string         `json:"period,omitempty"`
	AttributeCount    int            `json:"attribute_count"`
	OverallConfidence *float64       `json:"overall_confidence,omitempty"`
	Sequence          int64          `json:"sequence"`
}

// Summarize folds results into a RunSummary (without output keys or timing).
func Summarize(results []DocumentResult) RunSummary {
	s := RunSummary{Documents: len(results)}
	var sum float64
	var n int
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusPartial:
			s.Partial++
		case StatusFailed:
			s.Failed++
		}
		if r.Status != StatusFailed && !r.Resolved() {
			s.Unresolved++
		}
		if c, ok := r.OverallConfidence(); ok {
			sum += c
			n++
		}
	}
	if n > 0 {
		avg := sum / float64(n)
		s.OverallConfidence = &avg
	}
	return s
}

// RecordOf converts a result to its persisted summary.
func RecordOf(runID string, r DocumentResult) DocumentRecord {
	rec := DocumentRecord{
		RunID:          runID,
		DocumentID:     r.DocumentID,
		Status:         r.Status,
		Reason:         string(r.Reason),
		Error:          r.Error,
		AttributeCount: len(r.Attributes),
		Sequence:       r.Sequence,
	}
	if r.Resolved() {
		rec.Period = r.Period.String()
	}
	if c, ok := r.OverallConfidence(); ok {
		rec.OverallConfidence = &c
	}
	return rec
}
