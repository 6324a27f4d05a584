package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/consolidate"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/report"
	"github.com/sells-group/finextract/internal/storage"
)

var consolidateInput string

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Rebuild the consolidated workbook from stored per-document JSON",
	Long: "Loads the per-document JSON records under individual_jsons/ and re-runs " +
		"consolidation and reporting without calling the extraction model.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("consolidate"); err != nil {
			return err
		}

		sink, err := resolveSink(ctx, consolidateInput)
		if err != nil {
			return err
		}

		pub := report.NewPublisher(sink, cfg.Scoring.Weights, presignTTL())
		arts, ds, err := reconsolidate(ctx, sink, pub)
		if err != nil {
			return err
		}

		zap.L().Info("consolidation complete",
			zap.Int("documents", len(ds.Documents)),
			zap.Int("values", len(ds.Values)),
			zap.String("workbook", arts.WorkbookKey),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pub.Links(ctx, arts.Keys()))
	},
}

// resolveSink returns a local sink rooted at dir, or the configured output
// sink when dir is empty.
func resolveSink(ctx context.Context, dir string) (storage.Sink, error) {
	if dir != "" {
		return storage.NewLocalSink(dir), nil
	}
	_, sink, err := storage.New(ctx, cfg.Storage, "")
	return sink, err
}

// loadDataset reads the stored per-document records and consolidates them.
func loadDataset(ctx context.Context, sink storage.Sink) (model.ConsolidatedDataset, error) {
	results, err := report.LoadResults(ctx, sink)
	if err != nil {
		return model.ConsolidatedDataset{}, eris.Wrap(err, "load results")
	}
	if len(results) == 0 {
		return model.ConsolidatedDataset{}, eris.New("no per-document results found")
	}
	return consolidate.Consolidate(results), nil
}

// reconsolidate loads stored results and writes a fresh workbook only.
func reconsolidate(ctx context.Context, sink storage.Sink, pub *report.Publisher) (report.Artifacts, model.ConsolidatedDataset, error) {
	ds, err := loadDataset(ctx, sink)
	if err != nil {
		return report.Artifacts{}, ds, err
	}
	arts, err := pub.Publish(ctx, ds, false)
	if err != nil {
		return arts, ds, eris.Wrap(err, "publish workbook")
	}
	return arts, ds, nil
}

func init() {
	consolidateCmd.Flags().StringVar(&consolidateInput, "input", "", "local output directory holding individual_jsons/ (default: configured sink)")
	rootCmd.AddCommand(consolidateCmd)
}
