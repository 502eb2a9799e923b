package incident

import (
	"context"
	"testing"
	"time"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background(), Schema()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(s.DB())
}

func testIncident(t *testing.T, uuid string, mutate func(*incident.Incident)) incident.Incident {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	inc := incident.Incident{
		UUID:      uuid,
		Title:     "Reserve toss over the lake",
		Country:   "France",
		Date:      "2023-07-14",
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if mutate != nil {
		mutate(&inc)
	}
	return inc
}

func mustCreate(t *testing.T, r *Repo, inc incident.Incident) int64 {
	t.Helper()
	id, err := r.Create(context.Background(), &inc)
	if err != nil {
		t.Fatalf("create %s: %v", inc.UUID, err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }
