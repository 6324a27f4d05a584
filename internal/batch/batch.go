// Package batch runs extraction and scoring across many documents with
// bounded concurrency and per-document failure isolation.
package batch

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/extract"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/resilience"
	"github.com/sells-group/finextract/internal/scorer"
)

// Extractor turns one document into text blocks. Malformed documents come
// back as an empty Extraction with a diagnostic, not an error.
type Extractor interface {
	Extract(ctx context.Context, ref model.DocumentRef) (model.Extraction, error)
}

// Options tunes an Orchestrator.
type Options struct {
	// Concurrency caps in-flight documents. 0 means twice the CPU count.
	Concurrency int
	// DocumentTimeout bounds each document's pipeline.
	DocumentTimeout time.Duration
	// RequestsPerSecond limits model calls across workers. 0 disables.
	RequestsPerSecond float64
	Retry             resilience.RetryConfig
}

// OptionsFromConfig maps batch configuration onto Options.
func OptionsFromConfig(cfg config.BatchConfig) Options {
	return Options{
		Concurrency:       cfg.Concurrency,
		DocumentTimeout:   time.Duration(cfg.DocumentTimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Retry:             resilience.FromRetryConfig(cfg.Retry),
	}
}

const defaultDocumentTimeout = 300 * time.Second

// Orchestrator fans documents out to workers. Each worker owns its
// DocumentResult until it writes it into its slot of the result slice.
type Orchestrator struct {
	extractor Extractor
	model     extract.Model
	scorer    *scorer.Scorer
	catalog   *catalog.Catalog
	opts      Options
	limiter   *rate.Limiter

	seq atomic.Int64
	now func() time.Time
}

// New creates an Orchestrator. The catalog and scorer are validated before
// any document runs.
func New(ext Extractor, mdl extract.Model, sc *scorer.Scorer, cat *catalog.Catalog, opts Options) (*Orchestrator, error) {
	switch {
	case ext == nil:
		return nil, eris.New("batch: extractor is required")
	case mdl == nil:
		return nil, eris.New("batch: model is required")
	case sc == nil:
		return nil, eris.New("batch: scorer is required")
	case cat == nil || cat.Len() == 0:
		return nil, &model.ConfigurationError{Problems: []string{"attribute catalog is empty"}}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2 * runtime.NumCPU()
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = defaultDocumentTimeout
	}

	o := &Orchestrator{
		extractor: ext,
		model:     mdl,
		scorer:    sc,
		catalog:   cat,
		opts:      opts,
		now:       time.Now,
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	// Sequences keep growing across runs so stored results from a later run
	// win ties against an earlier one.
	o.seq.Store(o.now().UnixMicro())
	return o, nil
}

// Run processes docs and returns one result per document in submission
// order. It never fails as a whole: per-document errors become failed
// results, and documents not started before ctx ends are marked cancelled.
func (o *Orchestrator) Run(ctx context.Context, docs []model.DocumentRef) []model.DocumentResult {
	start := o.now()
	results := make([]model.DocumentResult, len(docs))
	launched := make([]bool, len(docs))

	// A plain group: one document's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)

	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}
		launched[i] = true
		g.Go(func() error {
			results[i] = o.process(ctx, doc)
			return nil
		})
	}
	_ = g.Wait()

	for i, doc := range docs {
		if !launched[i] {
			results[i] = o.publish(model.Failed(doc.ID, model.ReasonCancelled, eris.Wrap(ctx.Err(), "batch: not started")))
		}
	}

	s := model.Summarize(results)
	fields := []zap.Field{
		zap.Int("documents", s.Documents),
		zap.Int("succeeded", s.Succeeded),
		zap.Int("partial", s.Partial),
		zap.Int("failed", s.Failed),
		zap.Int("unresolved", s.Unresolved),
		zap.Duration("elapsed", o.now().Sub(start)),
	}
	if ctx.Err() != nil {
		fields = append(fields, zap.Bool("cancelled", true))
	}
	zap.L().Info("batch: complete", fields...)
	return results
}

// process runs one document under its own deadline and always returns a
// result.
func (o *Orchestrator) process(ctx context.Context, doc model.DocumentRef) model.DocumentResult {
	log := zap.L().With(zap.String("document_id", doc.ID))
	start := o.now()

	if err := ctx.Err(); err != nil {
		return o.publish(model.Failed(doc.ID, model.ReasonCancelled, err))
	}

	dctx, cancel := context.WithTimeout(ctx, o.opts.DocumentTimeout)
	defer cancel()

	res, err := o.processDocument(dctx, doc)
	if err != nil {
		reason := resilience.Classify(dctx, err, model.ReasonExtractor)
		res = model.Failed(doc.ID, reason, err)
		res.Method = methodOf(err)
	}
	res = o.publish(res)

	fields := []zap.Field{
		zap.String("status", string(res.Status)),
		zap.Int("attributes", len(res.Attributes)),
		zap.Int64("sequence", res.Sequence),
		zap.Duration("elapsed", o.now().Sub(start)),
	}
	if res.Period != nil {
		fields = append(fields, zap.String("period", res.Period.String()))
	}
	if res.Status == model.StatusFailed {
		log.Warn("batch: document failed", append(fields, zap.String("reason", string(res.Reason)), zap.String("error", res.Error))...)
	} else {
		log.Info("batch: document processed", fields...)
	}
	return res
}

func (o *Orchestrator) processDocument(ctx context.Context, doc model.DocumentRef) (model.DocumentResult, error) {
	ext, err := o.extractor.Extract(ctx, doc)
	if err != nil {
		return model.DocumentResult{}, err
	}
	if ext.Empty() {
		reason := ext.Reason
		if reason == "" {
			reason = model.ReasonExtractor
		}
		return model.DocumentResult{}, &extractionError{
			ExtractionFailure: model.ExtractionFailure{DocumentID: doc.ID, Reason: reason, Err: eris.New(ext.Diagnostic)},
			method:            ext.Method,
		}
	}

	prop, err := o.propose(ctx, doc, ext.Blocks)
	if err != nil {
		return model.DocumentResult{}, err
	}

	res := Assemble(doc, ext, prop, o.catalog, o.scorer)
	return res, nil
}

// propose calls the model under the shared rate limit, retrying transient
// failures.
func (o *Orchestrator) propose(ctx context.Context, doc model.DocumentRef, blocks []model.TextBlock) (model.Proposal, error) {
	retry := o.opts.Retry
	retry.OnRetry = resilience.RetryLogger("anthropic", "propose", doc.ID)
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (model.Proposal, error) {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return model.Proposal{}, err
			}
		}
		return o.model.Propose(ctx, doc, blocks, o.catalog)
	})
}

// publish stamps the completion sequence. Later completions get higher
// sequences.
func (o *Orchestrator) publish(res model.DocumentResult) model.DocumentResult {
	res.Sequence = o.seq.Add(1)
	res.ProcessedAt = o.now().UTC()
	if res.Attributes == nil {
		res.Attributes = map[string]model.ScoredAttribute{}
	}
	return res
}

// extractionError carries the extractor method alongside the failure.
type extractionError struct {
	model.ExtractionFailure
	method string
}

func (e *extractionError) Unwrap() error {
	return &e.ExtractionFailure
}

func methodOf(err error) string {
	var ee *extractionError
	if eris.As(err, &ee) {
		return ee.method
	}
	return ""
}
