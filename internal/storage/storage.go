// Package storage reads input documents and writes output artifacts on the
// local filesystem or S3.
package storage

import (
	"context"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
)

// Output folders under the sink root.
const (
	IndividualDir   = "individual_jsons"
	ConsolidatedDir = "consolidated_reports"

	// TimestampLayout stamps every artifact name.
	TimestampLayout = "20060102_150405"
)

// Object is one stored artifact.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// Kind is the artifact folder an object lives in, or "" for anything else.
func (o Object) Kind() string {
	switch {
	case strings.HasPrefix(o.Key, IndividualDir+"/"):
		return IndividualDir
	case strings.HasPrefix(o.Key, ConsolidatedDir+"/"):
		return ConsolidatedDir
	default:
		return ""
	}
}

// Source lists and reads input PDFs.
type Source interface {
	List(ctx context.Context) ([]model.DocumentRef, error)
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Sink stores output artifacts. Keys are slash-separated and relative to the
// sink root.
type Sink interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Delete(ctx context.Context, key string) error
	// Link returns a URL the artifact can be downloaded from.
	Link(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// New builds the source and sink named by cfg.Driver. inputDir overrides
// the local input directory when set.
func New(ctx context.Context, cfg config.StorageConfig, inputDir string) (Source, Sink, error) {
	in, out := cfg.Resolve()
	switch cfg.Driver {
	case "", "local":
		if inputDir == "" {
			inputDir = filepath.Join(cfg.LocalDir, in.Prefix)
		}
		return NewLocalSource(inputDir), NewLocalSink(filepath.Join(cfg.LocalDir, out.Prefix)), nil
	case "s3":
		api, err := NewS3API(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewS3Source(api.Client, in), NewS3Sink(api, out), nil
	default:
		return nil, nil, eris.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// IndividualKey is the key for one document's JSON record.
func IndividualKey(documentID string, ts time.Time) string {
	base := path.Base(documentID)
	base = strings.TrimSuffix(base, path.Ext(base))
	return path.Join(IndividualDir, base+"_"+ts.Format(TimestampLayout)+".json")
}

// ReportKey is the key for a consolidated workbook.
func ReportKey(ts time.Time) string {
	return path.Join(ConsolidatedDir, "consolidated_financial_report_"+ts.Format(TimestampLayout)+".xlsx")
}

// Outputs lists the artifacts in both output folders, newest first.
func Outputs(ctx context.Context, sink Sink) ([]Object, error) {
	var all []Object
	for _, dir := range []string{IndividualDir, ConsolidatedDir} {
		objs, err := sink.List(ctx, dir+"/")
		if err != nil {
			return nil, eris.Wrapf(err, "storage: list %s", dir)
		}
		all = append(all, objs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].LastModified.Equal(all[j].LastModified) {
			return all[i].LastModified.After(all[j].LastModified)
		}
		return all[i].Key < all[j].Key
	})
	return all, nil
}

// CleanupResult counts the artifacts a cleanup removed.
type CleanupResult struct {
	Individual   int      `json:"individual"`
	Consolidated int      `json:"consolidated"`
	Failed       []string `json:"failed,omitempty"`
}

// Cleanup deletes artifacts last modified before cutoff. A failed delete is
// recorded and the sweep continues.
func Cleanup(ctx context.Context, sink Sink, cutoff time.Time) (CleanupResult, error) {
	var res CleanupResult
	objs, err := Outputs(ctx, sink)
	if err != nil {
		return res, err
	}
	for _, o := range objs {
		if !o.LastModified.Before(cutoff) {
			continue
		}
		if err := sink.Delete(ctx, o.Key); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Failed = append(res.Failed, o.Key)
			continue
		}
		switch o.Kind() {
		case IndividualDir:
			res.Individual++
		case ConsolidatedDir:
			res.Consolidated++
		}
	}
	return res, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(path.Ext(name), ".pdf")
}
