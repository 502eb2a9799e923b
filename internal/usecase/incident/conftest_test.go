package incident

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	dominc "github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/fts"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeEmbedder maps every text to a length-derived 2-d vector.
type fakeEmbedder struct {
	dim   int
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	dim := f.dim
	if dim == 0 {
		dim = 2
	}
	vec := make([]float32, dim)
	vec[0] = float32(len(text))
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// flakyText wraps a text index and fails every write while err is set.
type flakyText struct {
	TextIndex
	err error
}

func (f *flakyText) Upsert(ctx context.Context, id int64, text string) error {
	if f.err != nil {
		return f.err
	}
	return f.TextIndex.Upsert(ctx, id, text)
}

type fixture struct {
	svc     *Service
	repo    *increpo.Repo
	text    *fts.Index
	flaky   *flakyText
	vectors *vector.Index
	embed   *fakeEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx, append(increpo.Schema(), fts.Schema, vector.Schema)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{
		repo:    increpo.New(store.DB()),
		text:    fts.New(store.DB()),
		vectors: vector.New(store.DB(), 2),
		embed:   &fakeEmbedder{},
	}
	f.flaky = &flakyText{TextIndex: f.text}
	f.svc = New(f.repo, f.flaky, f.vectors, f.embed, zap.NewNop()).
		WithClock(func() time.Time { return fixedNow }).
		WithBatchSize(2)
	return f
}

func (f *fixture) save(t *testing.T, inc dominc.Incident) dominc.Incident {
	t.Helper()
	saved, err := f.svc.Save(context.Background(), &inc)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return saved
}

func (f *fixture) textHits(t *testing.T, q string) []int64 {
	t.Helper()
	ids, err := f.text.Search(context.Background(), strings.ToLower(q), 10)
	if err != nil {
		t.Fatalf("text search: %v", err)
	}
	return ids
}

func (f *fixture) vectorIDs(t *testing.T) dominc.IDSet {
	t.Helper()
	ids, err := f.vectors.IDsWithEntries(context.Background())
	if err != nil {
		t.Fatalf("vector ids: %v", err)
	}
	return ids
}
