package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/finextract/internal/storage"
)

func TestFormatOutputs(t *testing.T) {
	at := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	objs := []storage.Object{
		{Key: "consolidated_reports/consolidated_financial_report_20240302_093000.xlsx", Size: 20480, LastModified: at},
		{Key: "individual_jsons/fy2023_20240302_093000.json", Size: 512, LastModified: at.Add(-time.Hour)},
	}

	var buf bytes.Buffer
	formatOutputs(&buf, objs)

	output := buf.String()
	assert.Contains(t, output, "KIND")
	assert.Contains(t, output, storage.ConsolidatedDir)
	assert.Contains(t, output, storage.IndividualDir)
	assert.Contains(t, output, "20.0 KiB")
	assert.Contains(t, output, "512 B")
	assert.Contains(t, output, "2024-03-02 09:30")
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanSize(tt.n))
	}
}
