// Package extract asks the extraction model for attribute candidates.
package extract

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/config"
	"github.com/sells-group/finextract/internal/model"
	"github.com/sells-group/finextract/internal/resilience"
	"github.com/sells-group/finextract/pkg/anthropic"
)

// Model proposes raw attribute candidates for one document's text.
type Model interface {
	Propose(ctx context.Context, doc model.DocumentRef, blocks []model.TextBlock, cat *catalog.Catalog) (model.Proposal, error)
}

// ClaudeModel is the Model backed by the Anthropic Messages API. Each call
// is a single attempt; the batch orchestrator owns retries.
type ClaudeModel struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
	cb     *resilience.CircuitBreaker
	schema *jsonschema.Schema

	mu    sync.Mutex
	usage anthropic.TokenUsage
}

// NewClaudeModel creates a ClaudeModel. cb may be nil.
func NewClaudeModel(client anthropic.Client, cfg config.AnthropicConfig, cb *resilience.CircuitBreaker) (*ClaudeModel, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &ClaudeModel{client: client, cfg: cfg, cb: cb, schema: schema}, nil
}

// Propose sends the document text to the model and parses its answer. Every
// error is an ExtractionFailure with reason model; API statuses worth
// retrying are marked transient.
func (m *ClaudeModel) Propose(ctx context.Context, doc model.DocumentRef, blocks []model.TextBlock, cat *catalog.Catalog) (model.Proposal, error) {
	temp := m.cfg.Temperature
	req := anthropic.MessageRequest{
		Model:       m.cfg.Model,
		MaxTokens:   m.cfg.MaxTokens,
		System:      anthropic.CachedSystem(SystemPrompt(cat)),
		Messages:    []anthropic.Message{{Role: "user", Content: UserPrompt(doc, blocks, m.cfg.MaxTextChars)}},
		Temperature: &temp,
	}

	call := func(ctx context.Context) (*anthropic.MessageResponse, error) {
		resp, err := m.client.CreateMessage(ctx, req)
		if err != nil {
			return nil, resilience.FromStatus(err, anthropic.StatusCode(err))
		}
		return resp, nil
	}

	var resp *anthropic.MessageResponse
	var err error
	if m.cb != nil {
		resp, err = resilience.ExecuteVal(ctx, m.cb, call)
	} else {
		resp, err = call(ctx)
	}
	if err != nil {
		return model.Proposal{}, failure(doc, err)
	}

	m.record(resp.Usage)
	resp.Usage.LogCost(m.cfg.Model, doc.ID)

	if resp.StopReason == "max_tokens" {
		zap.L().Warn("extract: model response hit max_tokens",
			zap.String("document", doc.ID),
			zap.Int64("max_tokens", m.cfg.MaxTokens),
		)
	}

	p, err := parseResponse(m.schema, resp.Text(), doc, blocks, cat)
	if err != nil {
		return model.Proposal{}, failure(doc, err)
	}
	return p, nil
}

// Usage returns the token usage accumulated across calls.
func (m *ClaudeModel) Usage() anthropic.TokenUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *ClaudeModel) record(u anthropic.TokenUsage) {
	m.mu.Lock()
	m.usage = m.usage.Add(u)
	m.mu.Unlock()
}

func failure(doc model.DocumentRef, err error) error {
	return &model.ExtractionFailure{
		DocumentID: doc.ID,
		Reason:     model.ReasonModel,
		Err:        eris.Wrap(err, "extract: propose"),
	}
}

func sortCandidates(cs []model.RawCandidate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].AttributeName < cs[j].AttributeName })
}
