package report

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/storage"
)

// Content types of the written artifacts.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Artifacts lists what one Publish call wrote.
type Artifacts struct {
	Timestamp    time.Time `json:"timestamp"`
	DocumentKeys []string  `json:"document_keys"`
	WorkbookKey  string    `json:"workbook_key"`
}

// Keys returns every written key, workbook first.
func (a Artifacts) Keys() []string {
	keys := make([]string, 0, len(a.DocumentKeys)+1)
	if a.WorkbookKey != "" {
		keys = append(keys, a.WorkbookKey)
	}
	return append(keys, a.DocumentKeys...)
}

// Link is a downloadable artifact.
type Link struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Publisher writes report artifacts to a sink.
type Publisher struct {
	sink    storage.Sink
	weights config.WeightsConfig
	ttl     time.Duration
	now     func() time.Time
}

// NewPublisher creates a Publisher. ttl bounds presigned link lifetime.
func NewPublisher(sink storage.Sink, weights config.WeightsConfig, ttl time.Duration) *Publisher {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Publisher{sink: sink, weights: weights, ttl: ttl, now: time.Now}
}

// Publish writes one JSON record per document and the consolidated
// workbook. When writeDocuments is false only the workbook is written, which
// is how stored records are re-consolidated.
func (p *Publisher) Publish(ctx context.Context, ds model.ConsolidatedDataset, writeDocuments bool) (Artifacts, error) {
	ts := p.now().UTC()
	out := Artifacts{Timestamp: ts}
	log := zap.L().With(zap.String("timestamp", ts.Format(storage.TimestampLayout)))

	if writeDocuments {
		seen := make(map[string]int)
		for _, d := range ds.Documents {
			body, err := MarshalDocument(d)
			if err != nil {
				return out, err
			}
			key := uniqueKey(storage.IndividualKey(d.DocumentID, ts), seen)
			if err := p.sink.Put(ctx, key, body, ContentTypeJSON); err != nil {
				return out, eris.Wrapf(err, "report: write %s", key)
			}
			out.DocumentKeys = append(out.DocumentKeys, key)
		}
	}

	book, err := Workbook(ds, p.weights, ts)
	if err != nil {
		return out, err
	}
	key := storage.ReportKey(ts)
	if err := p.sink.Put(ctx, key, book, ContentTypeXLSX); err != nil {
		return out, eris.Wrapf(err, "report: write %s", key)
	}
	out.WorkbookKey = key

	log.Info("report published",
		zap.Int("documents", len(out.DocumentKeys)),
		zap.String("workbook", key),
	)
	return out, nil
}

// uniqueKey suffixes key when two documents share a base name.
func uniqueKey(key string, seen map[string]int) string {
	n := seen[key]
	seen[key] = n + 1
	if n == 0 {
		return key
	}
	ext := ".json"
	return key[:len(key)-len(ext)] + "_" + strconv.Itoa(n) + ext
}

// Links returns download URLs for keys. A key that cannot be linked is
// logged and skipped.
func (p *Publisher) Links(ctx context.Context, keys []string) []Link {
	links := make([]Link, 0, len(keys))
	for _, k := range keys {
		url, err := p.sink.Link(ctx, k, p.ttl)
		if err != nil {
			zap.L().Warn("report: link failed", zap.String("key", k), zap.Error(err))
			continue
		}
		links = append(links, Link{Key: k, URL: url})
	}
	return links
}

// LoadResults reads every stored document record from sink. When a
// document was recorded more than once the latest record wins.
func LoadResults(ctx context.Context, sink storage.Sink) ([]model.DocumentResult, error) {
	objs, err := sink.List(ctx, storage.IndividualDir+"/")
	if err != nil {
		return nil, eris.Wrap(err, "report: list document records")
	}

	latest := make(map[string]model.DocumentResult)
	for _, o := range objs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := sink.Get(ctx, o.Key)
		if err != nil {
			return nil, eris.Wrapf(err, "report: read %s", o.Key)
		}
		r, err := UnmarshalDocument(body)
		if err != nil {
			zap.L().Warn("report: skipping unreadable record", zap.String("key", o.Key), zap.Error(err))
			continue
		}
		if prev, ok := latest[r.DocumentID]; ok && !newer(r, prev) {
			continue
		}
		latest[r.DocumentID] = r
	}

	out := make([]model.DocumentResult, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out, nil
}

func newer(a, b model.DocumentResult) bool {
	if !a.ProcessedAt.Equal(b.ProcessedAt) {
		return a.ProcessedAt.After(b.ProcessedAt)
	}
	return a.Sequence > b.Sequence
}
