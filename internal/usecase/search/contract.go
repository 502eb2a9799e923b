package search

import (
	"context"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
)

// Repository is the relational side of list and search.
type Repository interface {
	List(ctx context.Context, where filter.Clause, orderBy string, limit, offset int) ([]incident.Incident, error)
	Count(ctx context.Context, where filter.Clause) (int, error)
	FilterIDs(ctx context.Context, ids []int64, where filter.Clause) ([]incident.Incident, error)
}

// TextIndex ranks incident ids for a free-text query.
type TextIndex interface {
	Search(ctx context.Context, query string, limit int) ([]int64, error)
}

// VectorIndex ranks incident ids by embedding distance.
type VectorIndex interface {
	Search(ctx context.Context, vec []float32, limit int, exclude *int64) ([]result.Neighbor, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
