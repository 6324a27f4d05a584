package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/chat"
	"github.com/sells-group/finextract/internal/resilience"
	anthropicpkg "github.com/sells-group/finextract/pkg/anthropic"
)

var askInput string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the consolidated financial data",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("ask"); err != nil {
			return err
		}

		sink, err := resolveSink(ctx, askInput)
		if err != nil {
			return err
		}
		ds, err := loadDataset(ctx, sink)
		if err != nil {
			return err
		}

		assistant := chat.NewAssistant(
			anthropicpkg.NewClient(cfg.Anthropic.Key),
			cfg.Anthropic.Model,
			resilience.FromRetryConfig(cfg.Batch.Retry),
			resilience.NewCircuitBreaker(resilience.FromCircuitConfig(cfg.Batch.Circuit)),
		)

		answer, err := assistant.Ask(ctx, strings.Join(args, " "), &ds)
		if err != nil {
			return err
		}

		zap.L().Debug("answer received",
			zap.Int64("input_tokens", answer.Usage.InputTokens),
			zap.Int64("output_tokens", answer.Usage.OutputTokens),
		)
		_, err = fmt.Fprintln(os.Stdout, answer.Text)
		return err
	},
}

func init() {
	askCmd.Flags().StringVar(&askInput, "input", "", "local output directory holding individual_jsons/ (default: configured sink)")
	rootCmd.AddCommand(askCmd)
}
