package search

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/request"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/fts"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
)

// keywordEmbedder maps texts mentioning water onto one axis and everything else onto another.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if strings.Contains(strings.ToLower(text), "water") {
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

func TestSearch_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx, append(increpo.Schema(), fts.Schema, vector.Schema)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := increpo.New(store.DB())
	text := fts.New(store.DB())
	vectors := vector.New(store.DB(), 2)
	emb := keywordEmbedder{}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []incident.Incident{
		{UUID: "u1", Title: "Water landing after engine failure", Country: "France", Severity: "minor"},
		{UUID: "u2", Title: "Tree landing during thermal", Country: "Spain", Severity: "serious"},
		{UUID: "u3", Title: "Reserve deployed over water", Country: "Spain", Severity: "fatal"},
	}
	ids := map[string]int64{}
	for _, inc := range seed {
		inc.Verified = true
		inc.CreatedAt, inc.UpdatedAt = now, now
		id, err := repo.Create(ctx, &inc)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		inc.ID = id
		ids[inc.UUID] = id
		body := inc.Text()
		if err := text.Upsert(ctx, id, strings.ToLower(body)); err != nil {
			t.Fatalf("fts upsert: %v", err)
		}
		res, _ := emb.Embed(ctx, body)
		if err := vectors.Upsert(ctx, id, res.Embedding); err != nil {
			t.Fatalf("vector upsert: %v", err)
		}
	}

	svc := New(repo, text, vectors, emb, filter.NewCompiler(filter.IncidentRegistry()), Config{}, zap.NewNop())

	t.Run("text search", func(t *testing.T) {
		page, err := svc.Search(ctx, newTestRequest(t, request.Params{TextQuery: "WATER"}))
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		got := idsOf(page.Items)
		slices.Sort(got)
		want := []int64{ids["u1"], ids["u3"]}
		slices.Sort(want)
		if !slices.Equal(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	})

	t.Run("text search with exclude filter", func(t *testing.T) {
		page, err := svc.Search(ctx, newTestRequest(t, request.Params{
			TextQuery: "water",
			Exclude:   filter.NewSpec(filter.Param{Key: "severity", Value: "fatal"}),
		}))
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if got := idsOf(page.Items); !slices.Equal(got, []int64{ids["u1"]}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("semantic search ranks by distance then filters", func(t *testing.T) {
		page, err := svc.Search(ctx, newTestRequest(t, request.Params{
			SemanticQuery: "landing in water",
			Include:       filter.NewSpec(filter.Param{Key: "country", Value: "Spain"}),
		}))
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		// u3 is at distance 0, u2 at sqrt(2); u1 is filtered out by country
		if got := idsOf(page.Items); !slices.Equal(got, []int64{ids["u3"], ids["u2"]}) {
			t.Errorf("ids = %v", got)
		}
	})

	t.Run("list ordered by column", func(t *testing.T) {
		page, err := svc.Search(ctx, newTestRequest(t, request.Params{OrderBy: "title"}))
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if got := idsOf(page.Items); !slices.Equal(got, []int64{ids["u3"], ids["u2"], ids["u1"]}) {
			t.Errorf("ids = %v", got)
		}
		if page.Total != 3 {
			t.Errorf("total = %d", page.Total)
		}
	})
}
