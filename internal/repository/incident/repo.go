// Package incident persists incident rows in the relational store and answers
// the relational side of list, search, duplicate and stats queries.
package incident

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
)

// maxIDsPerQuery keeps IN lists below the SQLite bound-variable limit.
const maxIDsPerQuery = 500

// conn is the consumer interface over *sql.DB (ISP).
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repo implements the incident repositories of the usecase layer.
type Repo struct {
	db conn
}

// New creates an incident repository.
func New(db conn) *Repo {
	return &Repo{db: db}
}

// Create inserts inc and returns its new internal id.
func (r *Repo) Create(ctx context.Context, inc *incident.Incident) (int64, error) {
	args, err := bindArgs(inc)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("insert incident %s: %w", inc.UUID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert incident %s: %w", inc.UUID, err)
	}
	return id, nil
}

// Update overwrites every column of the row with inc.ID.
func (r *Repo) Update(ctx context.Context, inc *incident.Incident) error {
	args, err := bindArgs(inc)
	if err != nil {
		return err
	}
	// uuid is immutable; drop it and bind the id last.
	args = append(args[1:], inc.ID)
	res, err := r.db.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		return fmt.Errorf("update incident %s: %w", inc.UUID, err)
	}
	return requireAffected(res, inc.UUID)
}

// Delete removes the row with id.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete incident %d: %w", id, err)
	}
	return requireAffected(res, fmt.Sprint(id))
}

// GetByUUID returns the incident with the given external id.
func (r *Repo) GetByUUID(ctx context.Context, uuid string) (incident.Incident, error) {
	inc, err := scanIncident(r.db.QueryRowContext(ctx, selectPrefix+` WHERE uuid = ?`, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return incident.Incident{}, fmt.Errorf("incident %s: %w", uuid, domain.ErrNotFound)
	}
	if err != nil {
		return incident.Incident{}, fmt.Errorf("get incident %s: %w", uuid, err)
	}
	return inc, nil
}

// GetByID returns the incident with the given internal id.
func (r *Repo) GetByID(ctx context.Context, id int64) (incident.Incident, error) {
	inc, err := scanIncident(r.db.QueryRowContext(ctx, selectPrefix+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return incident.Incident{}, fmt.Errorf("incident %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return incident.Incident{}, fmt.Errorf("get incident %d: %w", id, err)
	}
	return inc, nil
}

// List returns rows matching where, ordered by orderBy, paginated.
// A non-positive limit returns every matching row.
func (r *Repo) List(ctx context.Context, where filter.Clause, orderBy string, limit, offset int) (
	[]incident.Incident, error,
) {
	q := selectPrefix + where.Where()
	if orderBy != "" {
		q += " ORDER BY " + orderBy
	}
	args := where.Args()
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(append([]any(nil), args...), limit, offset)
	}
	return r.query(ctx, q, args...)
}

// Count returns the number of rows matching where.
func (r *Repo) Count(ctx context.Context, where filter.Clause) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`+where.Where(), where.Args()...).
		Scan(&n); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// FilterIDs returns the rows among ids that match where, in no particular order.
func (r *Repo) FilterIDs(ctx context.Context, ids []int64, where filter.Clause) ([]incident.Incident, error) {
	var out []incident.Incident
	for start := 0; start < len(ids); start += maxIDsPerQuery {
		chunk := ids[start:min(start+maxIDsPerQuery, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		in := filter.Raw("id IN ("+placeholders(len(chunk))+")", args...)
		clause := filter.And(in, where)
		rows, err := r.query(ctx, selectPrefix+clause.Where(), clause.Args()...)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// AllIDs returns the ids of every stored incident.
func (r *Repo) AllIDs(ctx context.Context) (incident.IDSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM incidents`)
	if err != nil {
		return nil, fmt.Errorf("list incident ids: %w", err)
	}
	defer rows.Close()

	ids := incident.NewIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan incident id: %w", err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list incident ids: %w", err)
	}
	return ids, nil
}

// Each visits every incident in id order, batchSize rows at a time.
// Every batch is fully read before fn runs, so fn may issue its own queries.
func (r *Repo) Each(ctx context.Context, batchSize int, fn func([]incident.Incident) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var last int64
	for {
		batch, err := r.query(ctx, selectPrefix+` WHERE id > ? ORDER BY id LIMIT ?`, last, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		last = batch[len(batch)-1].ID
	}
}

func (r *Repo) query(ctx context.Context, q string, args ...any) ([]incident.Incident, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var out []incident.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result, ref string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("incident %s: %w", ref, err)
	}
	if n == 0 {
		return fmt.Errorf("incident %s: %w", ref, domain.ErrNotFound)
	}
	return nil
}
