// Package vector stores one embedding per incident and answers k-nearest-neighbour queries.
package vector

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
)

// Schema is the DDL of the vector table.
const Schema = `CREATE TABLE IF NOT EXISTS vec_incidents (
	incident_id INTEGER PRIMARY KEY,
	embedding   BLOB NOT NULL
)`

// Index is the vector adapter. Every stored and queried vector must have Dimensions() entries.
type Index struct {
	db  *sql.DB
	dim int
}

// New creates a vector index adapter for vectors of dim entries.
func New(db *sql.DB, dim int) *Index {
	return &Index{db: db, dim: dim}
}

// Name identifies the index in logs and metrics.
func (x *Index) Name() string { return "vector" }

// Dimensions returns the configured vector length.
func (x *Index) Dimensions() int { return x.dim }

// Upsert replaces the vector stored for id.
func (x *Index) Upsert(ctx context.Context, id int64, vec []float32) error {
	if err := domain.CheckDimension(x.dim, vec); err != nil {
		return err
	}
	return sqlite.WithTx(ctx, x.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_incidents WHERE incident_id = ?`, id); err != nil {
			return fmt.Errorf("vector delete %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_incidents (incident_id, embedding) VALUES (?, ?)`, id, Encode(vec)); err != nil {
			return fmt.Errorf("vector insert %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the vector for id. Missing entries are not an error.
func (x *Index) Delete(ctx context.Context, id int64) error {
	if _, err := x.db.ExecContext(ctx, `DELETE FROM vec_incidents WHERE incident_id = ?`, id); err != nil {
		return fmt.Errorf("vector delete %d: %w", id, err)
	}
	return nil
}

// Get returns the stored vector for id.
func (x *Index) Get(ctx context.Context, id int64) ([]float32, error) {
	var data []byte
	err := x.db.QueryRowContext(ctx, `SELECT embedding FROM vec_incidents WHERE incident_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("vector %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("vector get %d: %w", id, err)
	}
	return Decode(data)
}

// IDsWithEntries returns every id that has a vector.
func (x *Index) IDsWithEntries(ctx context.Context) (incident.IDSet, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT incident_id FROM vec_incidents`)
	if err != nil {
		return nil, fmt.Errorf("vector list ids: %w", err)
	}
	defer rows.Close()

	ids := incident.NewIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("vector scan id: %w", err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector list ids: %w", err)
	}
	return ids, nil
}

// Search returns up to limit neighbours of vec, nearest first. When exclude is set the
// index is asked for one extra neighbour and that id is dropped, so at most limit remain.
func (x *Index) Search(ctx context.Context, vec []float32, limit int, exclude *int64) ([]result.Neighbor, error) {
	if err := domain.CheckDimension(x.dim, vec); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	k := limit
	if exclude != nil {
		k++
	}

	hits, err := x.knn(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	if exclude != nil {
		hits = slices.DeleteFunc(hits, func(n result.Neighbor) bool { return n.ID() == *exclude })
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// knn scans every stored vector and keeps the k closest. Ties go to the lower id.
func (x *Index) knn(ctx context.Context, vec []float32, k int) ([]result.Neighbor, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT incident_id, embedding FROM vec_incidents`)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []result.Neighbor
	for rows.Next() {
		var (
			id   int64
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("vector scan: %w", err)
		}
		stored, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", id, err)
		}
		if err := domain.CheckDimension(x.dim, stored); err != nil {
			return nil, fmt.Errorf("vector %d: %w", id, err)
		}
		hits = append(hits, result.NewNeighbor(id, L2(vec, stored)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	slices.SortFunc(hits, func(a, b result.Neighbor) int {
		if c := cmp.Compare(a.Distance(), b.Distance()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}
