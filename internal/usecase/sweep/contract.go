package sweep

import (
	"context"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

// Source lists the incidents that are allowed to have index entries.
type Source interface {
	AllIDs(ctx context.Context) (incident.IDSet, error)
}

// Index is an adapter whose entries are keyed by incident id.
type Index interface {
	Name() string
	IDsWithEntries(ctx context.Context) (incident.IDSet, error)
	Delete(ctx context.Context, id int64) error
}

// Backfiller writes missing entries of the named index.
type Backfiller interface {
	Backfill(ctx context.Context, index string, ids []int64) (int, error)
}
