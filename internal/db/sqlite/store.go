// Package sqlite opens the embedded datastore that holds the relational rows,
// the full-text index, the vector index and the key-value cache table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "modernc.org/sqlite" // cgo-free driver, registers "sqlite"

	"github.com/bakwc/ppg-incidents/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
)`

// Config holds connection parameters.
type Config struct {
	Path          string
	BusyTimeoutMS int
}

// Store wraps a database/sql handle to a SQLite file.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the database, applies connection pragmas and creates the kv table.
// An in-memory database is pinned to a single connection so every query sees the same data.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.BusyTimeoutMS <= 0 {
		cfg.BusyTimeoutMS = 5000
	}

	memory := cfg.Path == MemoryPath
	handle, err := sql.Open("sqlite", dsn(cfg, memory))
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: err}
	}
	if memory {
		handle.SetMaxOpenConns(1)
		handle.SetConnMaxLifetime(0)
		handle.SetConnMaxIdleTime(0)
	}

	s := &Store{db: handle, path: cfg.Path, now: time.Now}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS),
	}
	if !memory {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := handle.ExecContext(ctx, p); err != nil {
			_ = handle.Close()
			return nil, &db.Error{Op: db.OpOpen, Err: fmt.Errorf("%s: %w", p, err)}
		}
	}

	if err := s.Migrate(ctx, kvSchema); err != nil {
		_ = handle.Close()
		return nil, err
	}
	return s, nil
}

// dsn builds a modernc DSN; per-connection pragmas ride along so pooled connections get them too.
func dsn(cfg Config, memory bool) string {
	if memory {
		return MemoryPath
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeoutMS))
	q.Add("_pragma", "foreign_keys(1)")
	return cfg.Path + "?" + q.Encode()
}

// DB exposes the handle to repositories.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Migrate executes idempotent DDL statements in order.
func (s *Store) Migrate(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &db.Error{Op: db.OpMigrate, Err: err}
		}
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady polls Ping until the database responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// Get retrieves a value by key. Expired keys are reported as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	if expiresAt.Valid && s.now().UnixMilli() >= expiresAt.Int64 {
		return nil, db.ErrKeyNotFound
	}
	return value, nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, sql.NullInt64{})
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(ctx, key, value, sql.NullInt64{Int64: s.now().Add(ttl).UnixMilli(), Valid: true})
}

// Del removes a key. Missing keys are not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, value []byte, expiresAt sql.NullInt64) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// WithTx runs fn in a transaction, committing on nil and rolling back otherwise.
func WithTx(ctx context.Context, handle *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := handle.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpTx, Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpTx, Err: err}
	}
	return nil
}
