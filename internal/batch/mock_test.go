package batch

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/finextract/internal/catalog"
	"github.com/sells-group/finextract/internal/model"
)

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, ref model.DocumentRef) (model.Extraction, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(model.Extraction), args.Error(1)
}

// --- Model Mock ---

type mockModel struct {
	mock.Mock
}

func (m *mockModel) Propose(ctx context.Context, doc model.DocumentRef, blocks []model.TextBlock, cat *catalog.Catalog) (model.Proposal, error) {
	args := m.Called(ctx, doc, blocks, cat)
	return args.Get(0).(model.Proposal), args.Error(1)
}

// funcModel lets a test decide each answer, including blocking ones.
type funcModel func(ctx context.Context, doc model.DocumentRef) (model.Proposal, error)

func (f funcModel) Propose(ctx context.Context, doc model.DocumentRef, _ []model.TextBlock, _ *catalog.Catalog) (model.Proposal, error) {
	return f(ctx, doc)
}
