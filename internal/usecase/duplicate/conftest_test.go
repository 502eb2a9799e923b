package duplicate

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return domain.EmbeddingResult{Embedding: m.vec}, m.err
}

type fixture struct {
	svc     *Service
	repo    *increpo.Repo
	vectors *vector.Index
	embed   *mockEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx, append(increpo.Schema(), vector.Schema)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		repo:    increpo.New(store.DB()),
		vectors: vector.New(store.DB(), 2),
		embed:   &mockEmbedder{vec: []float32{0, 0}},
	}
	f.svc = New(f.repo, f.vectors, f.embed, 0, zap.NewNop())
	return f
}

// add stores inc with a vector at vec and returns its id.
func (f *fixture) add(t *testing.T, inc incident.Incident, vec []float32) int64 {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	inc.CreatedAt, inc.UpdatedAt = now, now
	id, err := f.repo.Create(ctx, &inc)
	if err != nil {
		t.Fatalf("create %s: %v", inc.UUID, err)
	}
	if vec != nil {
		if err := f.vectors.Upsert(ctx, id, vec); err != nil {
			t.Fatalf("vector upsert %s: %v", inc.UUID, err)
		}
	}
	return id
}

func uuids(incs []incident.Incident) []string {
	out := make([]string, len(incs))
	for i, inc := range incs {
		out[i] = inc.UUID
	}
	return out
}
