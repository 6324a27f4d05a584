package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/report"
	"github.com/sells-group/finextract/internal/scorer"
	"github.com/sells-group/finextract/internal/storage"
)

func TestReconsolidate(t *testing.T) {
	r := &fakeRunner{years: map[string]int{"fy2022.pdf": 2022, "fy2023.pdf": 2023}}
	env, out := newTestEnv(t, r, "fy2022.pdf", "fy2023.pdf")
	ctx := context.Background()

	run, _, err := env.Run(ctx, 0)
	require.NoError(t, err)

	sink := storage.NewLocalSink(out)
	pub := report.NewPublisher(sink, scorer.DefaultWeights(), time.Hour)
	arts, ds, err := reconsolidate(ctx, sink, pub)
	require.NoError(t, err)

	assert.Empty(t, arts.DocumentKeys, "re-consolidation writes the workbook only")
	assert.NotEmpty(t, arts.WorkbookKey)
	assert.Len(t, ds.Documents, 2)
	assert.Len(t, ds.Values, 2)
	require.Len(t, ds.YoY, 1)
	assert.Equal(t, 2023, ds.YoY[0].Current.Year)

	objs, err := storage.Outputs(ctx, sink)
	require.NoError(t, err)
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	assert.Contains(t, keys, arts.WorkbookKey)
	assert.Subset(t, keys, run.Summary.DocumentKeys)
}

func TestReconsolidate_Empty(t *testing.T) {
	sink := storage.NewLocalSink(t.TempDir())
	pub := report.NewPublisher(sink, scorer.DefaultWeights(), time.Hour)

	_, _, err := reconsolidate(context.Background(), sink, pub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no per-document results")
}

func TestResolveSink_LocalDir(t *testing.T) {
	cfg = &config.Config{}
	dir := t.TempDir()

	sink, err := resolveSink(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, sink.Put(context.Background(), "individual_jsons/x.json", []byte("{}"), report.ContentTypeJSON))
	assert.FileExists(t, filepath.Join(dir, "individual_jsons", "x.json"))
}
