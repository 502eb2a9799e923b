package vector

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
)

func newTestIndex(t *testing.T, dim int) *Index {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background(), Schema); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(s.DB(), dim)
}

// seedLine stores vectors {i, 0} for ids 1..n so distance from the origin equals the id.
func seedLine(t *testing.T, x *Index, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if err := x.Upsert(context.Background(), int64(i), []float32{float32(i), 0}); err != nil {
			t.Fatalf("Upsert %d: %v", i, err)
		}
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, float32(math.Pi)}
	out, err := Decode(Encode(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !slices.Equal(in, out) {
		t.Errorf("got %v, want %v", out, in)
	}
	if _, err := Decode([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestL2(t *testing.T) {
	if d := L2([]float32{0, 0}, []float32{3, 4}); d != 5 {
		t.Errorf("L2 = %v, want 5", d)
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	x := newTestIndex(t, 2)
	err := x.Upsert(context.Background(), 1, []float32{1, 2, 3})
	var dm *domain.DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dm.Expected != 2 || dm.Got != 3 {
		t.Errorf("unexpected mismatch %+v", dm)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	x := newTestIndex(t, 2)
	_, err := x.Search(context.Background(), []float32{1}, 3, nil)
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestSearch_NearestFirst(t *testing.T) {
	x := newTestIndex(t, 2)
	seedLine(t, x, 5)

	got, err := x.Search(context.Background(), []float32{0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if ids := result.IDs(got); !slices.Equal(ids, []int64{1, 2, 3}) {
		t.Errorf("ids = %v", ids)
	}
	if got[0].Distance() != 1 {
		t.Errorf("distance = %v", got[0].Distance())
	}
}

func TestSearch_Exclude(t *testing.T) {
	tests := []struct {
		name    string
		stored  int
		limit   int
		exclude int64
		want    []int64
	}{
		{"exclude nearest", 5, 3, 1, []int64{2, 3, 4}},
		{"exclude middle", 5, 3, 2, []int64{1, 3, 4}},
		{"exclude absent id", 5, 3, 42, []int64{1, 2, 3}},
		{"fewer than limit", 3, 3, 1, []int64{2, 3}},
		{"only the excluded one", 1, 3, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestIndex(t, 2)
			seedLine(t, x, tt.stored)
			got, err := x.Search(context.Background(), []float32{0, 0}, tt.limit, &tt.exclude)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if ids := result.IDs(got); !slices.Equal(ids, tt.want) {
				t.Errorf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestSearch_ExcludeNeverReturned(t *testing.T) {
	x := newTestIndex(t, 2)
	seedLine(t, x, 10)
	for id := int64(1); id <= 10; id++ {
		got, err := x.Search(context.Background(), []float32{float32(id), 0}, 4, &id)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(got) != 4 {
			t.Errorf("exclude %d: %d results, want 4", id, len(got))
		}
		if slices.Contains(result.IDs(got), id) {
			t.Errorf("exclude %d: id returned", id)
		}
	}
}

func TestGetDeleteIDs(t *testing.T) {
	x := newTestIndex(t, 2)
	ctx := context.Background()
	seedLine(t, x, 2)

	v, err := x.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !slices.Equal(v, []float32{2, 0}) {
		t.Errorf("Get = %v", v)
	}

	if err := x.Upsert(ctx, 2, []float32{9, 9}); err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	v, err = x.Get(ctx, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !slices.Equal(v, []float32{9, 9}) {
		t.Errorf("Get after replace = %v", v)
	}

	if err := x.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := x.Get(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	ids, err := x.IDsWithEntries(ctx)
	if err != nil {
		t.Fatalf("IDsWithEntries: %v", err)
	}
	if len(ids) != 1 || !ids.Has(2) {
		t.Errorf("ids = %v", ids)
	}
}
