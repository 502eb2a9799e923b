package search

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/request"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
)

// --- Mocks ---

type mockRepo struct {
	listFn      func(ctx context.Context, where filter.Clause, orderBy string, limit, offset int) ([]incident.Incident, error)
	countFn     func(ctx context.Context, where filter.Clause) (int, error)
	filterIDsFn func(ctx context.Context, ids []int64, where filter.Clause) ([]incident.Incident, error)
}

func (m *mockRepo) List(
	ctx context.Context, where filter.Clause, orderBy string, limit, offset int,
) ([]incident.Incident, error) {
	if m.listFn != nil {
		return m.listFn(ctx, where, orderBy, limit, offset)
	}
	return nil, nil
}

func (m *mockRepo) Count(ctx context.Context, where filter.Clause) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, where)
	}
	return 0, nil
}

func (m *mockRepo) FilterIDs(ctx context.Context, ids []int64, where filter.Clause) ([]incident.Incident, error) {
	if m.filterIDsFn != nil {
		return m.filterIDsFn(ctx, ids, where)
	}
	return nil, nil
}

type mockText struct {
	ids    []int64
	err    error
	called bool
	limit  int
}

func (m *mockText) Search(_ context.Context, _ string, limit int) ([]int64, error) {
	m.called = true
	m.limit = limit
	return m.ids, m.err
}

type mockVectors struct {
	hits   []result.Neighbor
	err    error
	called bool
}

func (m *mockVectors) Search(_ context.Context, _ []float32, _ int, _ *int64) ([]result.Neighbor, error) {
	m.called = true
	return m.hits, m.err
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called bool
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.called = true
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

func newTestService(
	t *testing.T, repo Repository, text TextIndex, vectors VectorIndex, embed Embedder,
) *Service {
	t.Helper()
	return New(repo, text, vectors, embed, filter.NewCompiler(filter.IncidentRegistry()), Config{}, zap.NewNop())
}

func newTestRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	req, err := request.New(p, 20, 100)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func incidentsWithIDs(ids ...int64) []incident.Incident {
	out := make([]incident.Incident, len(ids))
	for i, id := range ids {
		out[i] = incident.Incident{ID: id}
	}
	return out
}

func idsOf(incs []incident.Incident) []int64 {
	out := make([]int64, len(incs))
	for i, inc := range incs {
		out[i] = inc.ID
	}
	return out
}
