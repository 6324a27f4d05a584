package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/batch"
	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/consolidate"
	"github.com/sells-group/finextract/internal/extract"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/monitoring"
	"github.com/sells-group/finextract/internal/ocr"
	"github.com/sells-group/finextract/internal/report"
	"github.com/sells-group/finextract/internal/resilience"
	"github.com/sells-group/finextract/internal/scorer"
	"github.com/sells-group/finextract/internal/storage"
	"github.com/sells-group/finextract/internal/store"
	anthropicpkg "github.com/sells-group/finextract/pkg/anthropic"
)

// publishTimeout bounds report publishing after the batch context ends.
const publishTimeout = 2 * time.Minute

// runner processes a batch of documents.
type runner interface {
	Run(ctx context.Context, docs []model.DocumentRef) []model.DocumentResult
}

// pipelineEnv holds everything the run command wires together.
type pipelineEnv struct {
	SourceName string
	Source     storage.Source
	Sink       storage.Sink
	Store      store.Store
	Runner     runner
	Publisher  *report.Publisher
	Model      *extract.ClaudeModel // nil in tests
	Alerter    *monitoring.Alerter  // nil disables alerts
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		if err := pe.Store.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
}

// initStore opens the run history store named by the config.
func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store)
}

// loadCatalog returns the configured catalog, or the built-in one when no
// path is set.
func loadCatalog() (*catalog.Catalog, error) {
	if cfg.Catalog.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog.Path)
}

// presignTTL is the configured lifetime of download links.
func presignTTL() time.Duration {
	return time.Duration(cfg.Storage.PresignTTLHours) * time.Hour
}

// initPipeline builds storage, extractors, model, orchestrator and store.
// Catalog and weights are validated before anything touches the network.
func initPipeline(ctx context.Context, inputDir string) (*pipelineEnv, error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, eris.Wrap(err, "load catalog")
	}
	sc, err := scorer.FromConfig(cfg.Scoring)
	if err != nil {
		return nil, eris.Wrap(err, "build scorer")
	}

	src, sink, err := storage.New(ctx, cfg.Storage, inputDir)
	if err != nil {
		return nil, err
	}

	breakers := resilience.NewServiceBreakers(resilience.FromCircuitConfig(cfg.Batch.Circuit))
	textExt, err := ocr.NewExtractor(cfg.OCR, breakers)
	if err != nil {
		return nil, err
	}

	client := anthropicpkg.NewClient(cfg.Anthropic.Key)
	mdl, err := extract.NewClaudeModel(client, cfg.Anthropic, breakers.Get("anthropic"))
	if err != nil {
		return nil, eris.Wrap(err, "build extraction model")
	}

	orch, err := batch.New(
		ocr.NewDocumentExtractor(src, textExt, cfg.OCR.MaxFileMB),
		mdl, sc, cat,
		batch.OptionsFromConfig(cfg.Batch),
	)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("ocr", cfg.OCR.Provider),
		zap.String("model", cfg.Anthropic.Model),
		zap.Int("attributes", cat.Len()),
	)

	return &pipelineEnv{
		SourceName: cfg.Storage.Driver,
		Source:     src,
		Sink:       sink,
		Store:      st,
		Runner:     orch,
		Publisher:  report.NewPublisher(sink, cfg.Scoring.Weights, presignTTL()),
		Model:      mdl,
		Alerter:    monitoring.NewAlerter(cfg.Monitoring),
	}, nil
}

// Run lists documents, processes up to limit of them (0 means all),
// publishes the reports and records the run. Cancelling ctx stops new
// documents; results already produced are still published and recorded.
func (pe *pipelineEnv) Run(ctx context.Context, limit int) (*model.Run, []report.Link, error) {
	start := time.Now()

	run, err := pe.Store.CreateRun(ctx, pe.SourceName)
	if err != nil {
		return nil, nil, eris.Wrap(err, "create run")
	}
	log := zap.L().With(zap.String("run_id", run.ID))

	docs, err := pe.Source.List(ctx)
	if err != nil {
		pe.finish(run, model.RunStatusFailed, nil, err)
		return run, nil, eris.Wrap(err, "list documents")
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	log.Info("documents listed", zap.Int("count", len(docs)))

	results := pe.Runner.Run(ctx, docs)

	// Completed documents are kept even when the batch was cancelled.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	records := make([]model.DocumentRecord, 0, len(results))
	for _, r := range results {
		records = append(records, model.RecordOf(run.ID, r))
	}
	if err := pe.Store.SaveDocuments(pubCtx, records); err != nil {
		log.Warn("save document records", zap.Error(err))
	}

	ds := consolidate.Consolidate(results)
	arts, err := pe.Publisher.Publish(pubCtx, ds, true)

	summary := model.Summarize(results)
	summary.WorkbookKey = arts.WorkbookKey
	summary.DocumentKeys = arts.DocumentKeys
	summary.DurationMs = time.Since(start).Milliseconds()
	var costUSD float64
	if pe.Model != nil {
		usage := pe.Model.Usage()
		usage.LogCost(cfg.Anthropic.Model, "run "+run.ID)
		costUSD = usage.EstimateCost(cfg.Anthropic.Model)
	}

	if err != nil {
		pe.finish(run, model.RunStatusFailed, &summary, err)
		return run, nil, eris.Wrap(err, "publish reports")
	}

	status := model.RunStatusComplete
	var runErr error
	if ctx.Err() != nil {
		status = model.RunStatusCancelled
		runErr = ctx.Err()
	}
	pe.finish(run, status, &summary, runErr)

	if pe.Alerter != nil {
		pe.Alerter.Check(pubCtx, monitoring.RunSnapshot{RunID: run.ID, Summary: summary, CostUSD: costUSD})
	}

	return run, pe.Publisher.Links(pubCtx, arts.Keys()), nil
}

func (pe *pipelineEnv) finish(run *model.Run, status model.RunStatus, summary *model.RunSummary, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := pe.Store.FinishRun(ctx, run.ID, status, summary, msg); err != nil {
		zap.L().Error("finish run", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	run.Status = status
	run.Summary = summary
	run.Error = msg
}
