package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/config"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLocalSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_q1_2023.pdf"), "%PDF-1.4 b")
	writeFile(t, filepath.Join(dir, "2022", "a_fy2022.PDF"), "%PDF-1.4 a")
	writeFile(t, filepath.Join(dir, "notes.txt"), "skip me")

	src := NewLocalSource(dir)
	refs, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "2022/a_fy2022.PDF", refs[0].ID)
	assert.Equal(t, "a_fy2022.PDF", refs[0].Name)
	assert.Equal(t, "b_q1_2023.pdf", refs[1].ID)
	assert.Equal(t, int64(len("%PDF-1.4 b")), refs[1].Size)

	data, err := src.Fetch(context.Background(), refs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 a", string(data))

	_, err = src.Fetch(context.Background(), "../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the root")
}

func TestLocalSource_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocalSource(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	assert.Error(t, err)
}

func TestLocalSink(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	sink := NewLocalSink(dir)

	key := "individual_jsons/a_20240101_120000.json"
	require.NoError(t, sink.Put(ctx, key, []byte(`{"ok":true}`), "application/json"))

	got, err := sink.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))

	objs, err := sink.List(ctx, IndividualDir+"/")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, key, objs[0].Key)
	assert.Equal(t, IndividualDir, objs[0].Kind())

	empty, err := sink.List(ctx, ConsolidatedDir+"/")
	require.NoError(t, err)
	assert.Empty(t, empty)

	link, err := sink.Link(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "file://"))
	assert.True(t, strings.HasSuffix(link, key))

	require.NoError(t, sink.Delete(ctx, key))
	_, err = sink.Get(ctx, key)
	assert.Error(t, err)
}

func TestOutputsAndCleanup(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	sink := NewLocalSink(dir)
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

	files := []struct {
		key string
		age time.Duration
	}{
		{"individual_jsons/old_20240101_000000.json", 60 * 24 * time.Hour},
		{"individual_jsons/new_20240629_000000.json", 24 * time.Hour},
		{"consolidated_reports/consolidated_financial_report_20240101_000000.xlsx", 45 * 24 * time.Hour},
		{"consolidated_reports/consolidated_financial_report_20240630_000000.xlsx", time.Hour},
	}
	for _, f := range files {
		require.NoError(t, sink.Put(ctx, f.key, []byte("x"), ""))
		mt := now.Add(-f.age)
		require.NoError(t, os.Chtimes(filepath.Join(dir, filepath.FromSlash(f.key)), mt, mt))
	}
	// Stray files outside the output folders are never listed.
	writeFile(t, filepath.Join(dir, "other.txt"), "x")

	objs, err := Outputs(ctx, sink)
	require.NoError(t, err)
	require.Len(t, objs, 4)
	assert.Equal(t, files[3].key, objs[0].Key)
	assert.Equal(t, files[0].key, objs[3].Key)

	res, err := Cleanup(ctx, sink, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Individual)
	assert.Equal(t, 1, res.Consolidated)
	assert.Empty(t, res.Failed)

	objs, err = Outputs(ctx, sink)
	require.NoError(t, err)
	assert.Len(t, objs, 2)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(t, "individual_jsons/acme_q1_2023_20240305_140709.json", IndividualKey("inputfolder/acme_q1_2023.pdf", ts))
	assert.Equal(t, "consolidated_reports/consolidated_financial_report_20240305_140709.xlsx", ReportKey(ts))
}

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src, sink, err := New(context.Background(), config.StorageConfig{
		Driver:       "local",
		LocalDir:     dir,
		InputPrefix:  "in",
		OutputPrefix: "out",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "in"), src.(*LocalSource).dir)
	assert.Equal(t, filepath.Join(dir, "out"), sink.(*LocalSink).dir)

	src, _, err = New(context.Background(), config.StorageConfig{Driver: "local", LocalDir: dir}, "/custom")
	require.NoError(t, err)
	assert.Equal(t, "/custom", src.(*LocalSource).dir)

	_, _, err = New(context.Background(), config.StorageConfig{Driver: "gcs"}, "")
	assert.Error(t, err)
}
