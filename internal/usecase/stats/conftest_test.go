package stats

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
)

type countingRepo struct {
	Repository
	counts int
}

func (c *countingRepo) Count(ctx context.Context, where filter.Clause) (int, error) {
	c.counts++
	return c.Repository.Count(ctx, where)
}

func newTestService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx, increpo.Schema()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := increpo.New(store.DB())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := []incident.Incident{
		{UUID: "fr-21", Country: "France", Date: "2021-06-01", Severity: "fatal", WindSpeedMS: ptr(3.0), Verified: true},
		{UUID: "fr-22", Country: "France", Date: "2022-03-10", Severity: "minor", WindSpeedMS: ptr(5.0), Verified: true},
		{UUID: "es-22", Country: "Spain", Date: "2022-08-20", Severity: "serious", WindSpeedMS: ptr(9.0), Verified: true},
		{UUID: "it-xx", Country: "Italy", Severity: "minor", Verified: true},
		{UUID: "es-23", Country: "Spain", Date: "2023-01-01", Severity: "fatal", WindSpeedMS: ptr(100.0)},
	}
	for _, inc := range seed {
		inc.CreatedAt, inc.UpdatedAt = now, now
		if _, err := repo.Create(ctx, &inc); err != nil {
			t.Fatalf("create %s: %v", inc.UUID, err)
		}
	}

	counting := &countingRepo{Repository: repo}
	return New(counting, filter.NewCompiler(filter.IncidentRegistry()), zap.NewNop()), counting
}

func ptr[T any](v T) *T { return &v }
