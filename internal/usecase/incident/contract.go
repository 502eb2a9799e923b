package incident

import (
	"context"

	"github.com/bakwc/ppg-incidents/internal/domain"
	dominc "github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
)

// Repository defines the relational storage contract for incidents.
type Repository interface {
	Create(ctx context.Context, inc *dominc.Incident) (int64, error)
	Update(ctx context.Context, inc *dominc.Incident) error
	Delete(ctx context.Context, id int64) error
	GetByUUID(ctx context.Context, uuid string) (dominc.Incident, error)
	FilterIDs(ctx context.Context, ids []int64, where filter.Clause) ([]dominc.Incident, error)
	Each(ctx context.Context, batchSize int, fn func([]dominc.Incident) error) error
}

// TextIndex stores the lowercased flattened text per incident.
type TextIndex interface {
	Upsert(ctx context.Context, id int64, text string) error
	Delete(ctx context.Context, id int64) error
}

// VectorIndex stores one embedding per incident.
type VectorIndex interface {
	Upsert(ctx context.Context, id int64, vec []float32) error
	Delete(ctx context.Context, id int64) error
	IDsWithEntries(ctx context.Context) (dominc.IDSet, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
