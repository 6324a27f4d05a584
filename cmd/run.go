package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/report"
)

var (
	runSource      string
	runInput       string
	runLimit       int
	runConcurrency int
)

// runOutput is what the run command prints.
type runOutput struct {
	Run   *model.Run    `json:"run"`
	Links []report.Link `json:"links,omitempty"`
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract, score and consolidate every PDF in the input location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if runSource != "" {
			cfg.Storage.Driver = runSource
		}
		if runConcurrency > 0 {
			cfg.Batch.Concurrency = runConcurrency
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		env, err := initPipeline(ctx, runInput)
		if err != nil {
			return err
		}
		defer env.Close()

		run, links, err := env.Run(ctx, runLimit)
		if err != nil {
			return err
		}

		zap.L().Info("run complete",
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runOutput{Run: run, Links: links})
	},
}

func init() {
	runCmd.Flags().StringVar(&runSource, "source", "", "storage driver override (local, s3)")
	runCmd.Flags().StringVar(&runInput, "input", "", "local input directory (overrides storage.local_dir/input_prefix)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max documents to process (0 = all)")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", 0, "max documents in flight (0 = config)")
	rootCmd.AddCommand(runCmd)
}
