package duplicate

import (
	"context"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
)

// Repository is the relational side of the duplicate cascade.
type Repository interface {
	GetByUUID(ctx context.Context, uuid string) (incident.Incident, error)
	List(ctx context.Context, where filter.Clause, orderBy string, limit, offset int) ([]incident.Incident, error)
	FilterIDs(ctx context.Context, ids []int64, where filter.Clause) ([]incident.Incident, error)
}

// VectorIndex answers nearest-neighbour queries and returns stored vectors.
type VectorIndex interface {
	Search(ctx context.Context, vec []float32, limit int, exclude *int64) ([]result.Neighbor, error)
	Get(ctx context.Context, id int64) ([]float32, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
