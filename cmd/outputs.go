package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/report"
	"github.com/sells-group/finextract/internal/storage"
)

var outputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "Manage previously written reports",
	Long:  "Commands for listing, linking and cleaning up per-document JSON and consolidated workbooks.",
}

// -- outputs list --

var outputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List previous outputs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("outputs"); err != nil {
			return err
		}
		_, sink, err := storage.New(ctx, cfg.Storage, "")
		if err != nil {
			return err
		}

		objs, err := storage.Outputs(ctx, sink)
		if err != nil {
			return eris.Wrap(err, "outputs list")
		}
		if len(objs) == 0 {
			fmt.Fprintln(os.Stderr, "No outputs found.")
			return nil
		}

		formatOutputs(os.Stdout, objs)
		return nil
	},
}

// -- outputs cleanup --

var outputsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete outputs older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("outputs"); err != nil {
			return err
		}
		days, _ := cmd.Flags().GetInt("days")
		if days <= 0 {
			days = cfg.Storage.RetentionDays
		}
		if days <= 0 {
			return eris.New("outputs cleanup: --days must be > 0")
		}

		_, sink, err := storage.New(ctx, cfg.Storage, "")
		if err != nil {
			return err
		}

		cutoff := time.Now().AddDate(0, 0, -days)
		res, err := storage.Cleanup(ctx, sink, cutoff)
		if err != nil {
			return eris.Wrap(err, "outputs cleanup")
		}

		zap.L().Info("cleanup complete",
			zap.Int("days", days),
			zap.Int("individual", res.Individual),
			zap.Int("consolidated", res.Consolidated),
			zap.Int("failed", len(res.Failed)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

// -- outputs links --

var outputsLinksCmd = &cobra.Command{
	Use:   "links",
	Short: "Print download links for every previous output",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("outputs"); err != nil {
			return err
		}
		_, sink, err := storage.New(ctx, cfg.Storage, "")
		if err != nil {
			return err
		}

		objs, err := storage.Outputs(ctx, sink)
		if err != nil {
			return eris.Wrap(err, "outputs links")
		}
		keys := make([]string, 0, len(objs))
		for _, o := range objs {
			keys = append(keys, o.Key)
		}

		pub := report.NewPublisher(sink, cfg.Scoring.Weights, presignTTL())
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(pub.Links(ctx, keys))
	},
}

func init() {
	outputsCleanupCmd.Flags().Int("days", 0, "delete outputs last modified more than this many days ago (0 = storage.retention_days)")

	outputsCmd.AddCommand(outputsListCmd)
	outputsCmd.AddCommand(outputsCleanupCmd)
	outputsCmd.AddCommand(outputsLinksCmd)
	rootCmd.AddCommand(outputsCmd)
}

// formatOutputs writes a tabular list of output objects to out.
func formatOutputs(out io.Writer, objs []storage.Object) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KIND\tKEY\tSIZE\tMODIFIED")
	_, _ = fmt.Fprintln(w, "----\t---\t----\t--------")
	for _, o := range objs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			o.Kind(), o.Key, humanSize(o.Size), o.LastModified.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// humanSize renders a byte count with a binary unit.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
