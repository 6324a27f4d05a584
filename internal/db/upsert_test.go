package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentsUpsert = UpsertConfig{
	Table:        "run_documents",
	Columns:      []string{"run_id", "document_id", "status"},
	ConflictKeys: []string{"run_id", "document_id"},
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, documentsUpsert, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_InvalidConfig(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{Table: "t", ConflictKeys: []string{"id"}}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")

	_, err = BulkUpsert(context.Background(), nil, UpsertConfig{Table: "t", Columns: []string{"id"}}, [][]any{{1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_run_documents"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_run_documents"}, documentsUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "run_documents"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rows := [][]any{{"run-1", "a.pdf", "success"}, {"run-1", "b.pdf", "failed"}}
	n, err := BulkUpsert(context.Background(), mock, documentsUpsert, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_run_documents"}, documentsUpsert.Columns).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, documentsUpsert, [][]any{{"run-1", "a.pdf", "success"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for run_documents")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertConfig_MergeStatement(t *testing.T) {
	assert.Equal(t,
		`INSERT INTO "run_documents" ("run_id", "document_id", "status") SELECT "run_id", "document_id", "status" `+
			`FROM "_tmp_upsert_run_documents" ON CONFLICT ("run_id", "document_id") DO UPDATE SET "status" = EXCLUDED."status"`,
		documentsUpsert.mergeStatement())

	keysOnly := UpsertConfig{Table: "seen", Columns: []string{"id"}, ConflictKeys: []string{"id"}}
	assert.Contains(t, keysOnly.mergeStatement(), "DO NOTHING")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"finextract.runs", `"finextract"."runs"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}
