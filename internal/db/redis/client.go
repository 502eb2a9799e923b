// Package redis is the shared embedding cache backend for deployments running several API processes.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/bakwc/ppg-incidents/internal/db"
)

var _ db.Store = (*Store)(nil)

// DefaultKeyPrefix namespaces every key written by this service.
const DefaultKeyPrefix = "ppgincidents:"

const clientName = "ppg-incidents"

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string // DefaultKeyPrefix when empty
}

// Store is a rueidis-backed key-value store.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore validates cfg and connects. rueidis dials eagerly, so an unreachable server fails here.
func NewStore(cfg Config) (*Store, error) {
	addrs := make([]string, 0, len(cfg.Addrs))
	for _, a := range cfg.Addrs {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("redis: at least one address is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		ClientName:   clientName,
		DisableCache: true,
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpOpen, Err: fmt.Errorf("connect %s: %w", strings.Join(addrs, ","), err)}
	}
	return newStore(client, prefix), nil
}

func newStore(c rueidis.Client, prefix string) *Store {
	return &Store{client: c, prefix: prefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return db.Wrap(db.OpPing, s.client.Do(ctx, s.client.B().Ping().Build()).Error())
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

func (s *Store) key(k string) string {
	return s.prefix + k
}
