// Package fts maintains the trigram full-text index over incident text.
package fts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

// Schema is the DDL of the full-text table. Trigram tokens make every
// query a case-insensitive substring match of at least three characters.
const Schema = `CREATE VIRTUAL TABLE IF NOT EXISTS fts_incidents USING fts5(
	incident_id UNINDEXED,
	content,
	tokenize = 'trigram'
)`

// Index is the full-text adapter.
type Index struct {
	db *sql.DB
}

// New creates a full-text index adapter.
func New(db *sql.DB) *Index {
	return &Index{db: db}
}

// Name identifies the index in logs and metrics.
func (x *Index) Name() string { return "fts" }

// Upsert replaces the entry for id with the lower-cased text.
func (x *Index) Upsert(ctx context.Context, id int64, text string) error {
	text = strings.ToLower(text)
	return sqlite.WithTx(ctx, x.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_incidents WHERE incident_id = ?`, id); err != nil {
			return fmt.Errorf("fts delete %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fts_incidents (incident_id, content) VALUES (?, ?)`, id, text); err != nil {
			return fmt.Errorf("fts insert %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the entry for id. Missing entries are not an error.
func (x *Index) Delete(ctx context.Context, id int64) error {
	if _, err := x.db.ExecContext(ctx, `DELETE FROM fts_incidents WHERE incident_id = ?`, id); err != nil {
		return fmt.Errorf("fts delete %d: %w", id, err)
	}
	return nil
}

// IDsWithEntries returns every id that has an entry.
func (x *Index) IDsWithEntries(ctx context.Context) (incident.IDSet, error) {
	rows, err := x.db.QueryContext(ctx, `SELECT incident_id FROM fts_incidents`)
	if err != nil {
		return nil, fmt.Errorf("fts list ids: %w", err)
	}
	defer rows.Close()

	ids := incident.NewIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("fts scan id: %w", err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fts list ids: %w", err)
	}
	return ids, nil
}

// Search returns up to limit ids ranked by relevance, best first.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]int64, error) {
	phrase := Phrase(query)
	if phrase == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := x.db.QueryContext(ctx, `
		SELECT incident_id FROM fts_incidents
		WHERE fts_incidents MATCH ?
		ORDER BY bm25(fts_incidents)
		LIMIT ?`, phrase, limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("fts scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	return ids, nil
}

// Phrase quotes q as a single lowercase FTS5 phrase so operators in user input stay literal.
// An empty result means there is nothing to search for.
func Phrase(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return ""
	}
	return `"` + strings.ReplaceAll(strings.ToLower(q), `"`, `""`) + `"`
}
