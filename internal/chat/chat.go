// Package chat answers analyst questions about a consolidated dataset.
package chat

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/resilience"
	"github.com/sells-group/finextract/pkg/anthropic"
)

// Request settings for chat answers.
const (
	Temperature = 0.3
	MaxTokens   = 1000

	// maxContextValues bounds the attribute values listed in the context.
	maxContextValues = 200
	// maxHighlights bounds the year-over-year rows listed in the context.
	maxHighlights = 20
)

const systemPrompt = `You are a financial analysis assistant with access to financial data extracted from PDF statements.
Help the user understand and analyze it:
- answer questions about specific metrics
- point out trends and changes between periods
- explain ratios and what they imply
- flag possible areas of concern or opportunity

Base every answer on the data provided and say plainly when the data cannot answer the question.
Be concise.`

// Assistant answers questions with the Anthropic Messages API.
type Assistant struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
	cb     *resilience.CircuitBreaker
}

// NewAssistant creates an Assistant. cb may be nil.
func NewAssistant(client anthropic.Client, modelName string, retry resilience.RetryConfig, cb *resilience.CircuitBreaker) *Assistant {
	return &Assistant{client: client, model: modelName, retry: retry, cb: cb}
}

// Answer is the model's reply to one question.
type Answer struct {
	Text  string               `json:"text"`
	Usage anthropic.TokenUsage `json:"usage"`
}

// Ask answers question using ds as context.
func (a *Assistant) Ask(ctx context.Context, question string, ds *model.ConsolidatedDataset) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, eris.New("chat: empty question")
	}

	temp := Temperature
	req := anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   MaxTokens,
		System:      anthropic.CachedSystem(systemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: UserMessage(question, ds)}},
		Temperature: &temp,
	}

	retry := a.retry
	retry.OnRetry = resilience.RetryLogger("anthropic", "chat", "")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		call := func(ctx context.Context) (*anthropic.MessageResponse, error) {
			resp, err := a.client.CreateMessage(ctx, req)
			if err != nil {
				return nil, resilience.FromStatus(err, anthropic.StatusCode(err))
			}
			return resp, nil
		}
		if a.cb != nil {
			return resilience.ExecuteVal(ctx, a.cb, call)
		}
		return call(ctx)
	})
	if err != nil {
		return Answer{}, eris.Wrap(err, "chat: ask")
	}

	resp.Usage.LogCost(a.model, "chat")
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Answer{}, eris.New("chat: empty answer")
	}
	zap.L().Debug("chat answered", zap.Int("chars", len(text)), zap.String("stop_reason", resp.StopReason))
	return Answer{Text: text, Usage: resp.Usage}, nil
}

// UserMessage wraps question with the dataset summary.
func UserMessage(question string, ds *model.ConsolidatedDataset) string {
	var b strings.Builder
	b.WriteString("Context data:\n")
	b.WriteString(ContextSummary(ds))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	return b.String()
}

// ContextSummary renders the dataset as compact text for the model:
// document counts, periods, consolidated values and the largest
// year-over-year moves.
func ContextSummary(ds *model.ConsolidatedDataset) string {
	if ds == nil || len(ds.Documents) == 0 {
		return "No financial data available."
	}

	var b strings.Builder
	sum := model.Summarize(ds.Documents)
	fmt.Fprintf(&b, "Data from %d PDF documents (%d successful, %d partial, %d failed).\n",
		sum.Documents, sum.Succeeded, sum.Partial, sum.Failed)
	if sum.OverallConfidence != nil {
		fmt.Fprintf(&b, "Overall extraction confidence: %.2f.\n", *sum.OverallConfidence)
	}

	periods := ds.Periods()
	if len(periods) > 0 {
		labels := make([]string, len(periods))
		for i, p := range periods {
			labels[i] = p.String()
		}
		fmt.Fprintf(&b, "Periods: %s.\n", strings.Join(labels, ", "))
	}

	keys := ds.Keys()
	if len(keys) > 0 {
		b.WriteString("\nValues:\n")
	}
	for i, k := range keys {
		if i == maxContextValues {
			fmt.Fprintf(&b, "... %d more values omitted\n", len(keys)-maxContextValues)
			break
		}
		v := ds.Values[k]
		fmt.Fprintf(&b, "- %s %s: %s (confidence %.2f)\n", k.Attribute, k.Period, v.Value.String(), v.Confidence)
	}

	if highlights := topMoves(ds.YoY, maxHighlights); len(highlights) > 0 {
		b.WriteString("\nYear-over-year changes:\n")
		for _, y := range highlights {
			pct := "undefined (previous value zero)"
			if y.PctChange != nil {
				pct = fmt.Sprintf("%+.1f%%", *y.PctChange*100)
			}
			fmt.Fprintf(&b, "- %s %s vs %s: %s -> %s (%s)\n",
				y.Attribute, y.Current, y.Previous, y.PreviousValue.String(), y.CurrentValue.String(), pct)
		}
	}

	if n := len(ds.Quality.Unresolved); n > 0 {
		fmt.Fprintf(&b, "\n%d documents had no identifiable period and are not included above.\n", n)
	}
	return strings.TrimRight(b.String(), "\n")
}

// topMoves returns up to n rows with the largest absolute percentage change.
// Rows with an undefined change sort last.
func topMoves(rows []model.YoYRow, n int) []model.YoYRow {
	out := make([]model.YoYRow, len(rows))
	copy(out, rows)
	abs := func(r model.YoYRow) float64 {
		if r.PctChange == nil {
			return -1
		}
		if *r.PctChange < 0 {
			return -*r.PctChange
		}
		return *r.PctChange
	}
	sort.SliceStable(out, func(i, j int) bool { return abs(out[i]) > abs(out[j]) })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
