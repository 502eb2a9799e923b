package fts

import (
	"context"
	"slices"
	"testing"

	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.Config{Path: sqlite.MemoryPath})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Migrate(context.Background(), Schema); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(s.DB())
}

func TestPhrase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"Reserve", `"reserve"`},
		{`he said "hi"`, `"he said ""hi"""`},
		{"a OR b", `"a or b"`},
	}
	for _, tt := range tests {
		if got := Phrase(tt.in); got != tt.want {
			t.Errorf("Phrase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUpsertSearch(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()

	docs := map[int64]string{
		1: "Title: Reserve toss over the lake",
		2: "Title: Tree landing after engine failure",
		3: "Title: Lake crossing, engine failure, RESERVE deployed over the lake",
	}
	for id, text := range docs {
		if err := x.Upsert(ctx, id, text); err != nil {
			t.Fatalf("Upsert %d: %v", id, err)
		}
	}

	got, err := x.Search(ctx, "reserve", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	slices.Sort(got)
	if !slices.Equal(got, []int64{1, 3}) {
		t.Errorf("reserve hits = %v", got)
	}

	got, err = x.Search(ctx, "ENGINE FAIL", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit not applied: %v", got)
	}

	got, err = x.Search(ctx, `"; DROP TABLE x; --`, 10)
	if err != nil {
		t.Fatalf("Search with operators: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("unexpected hits %v", got)
	}
}

func TestSearch_SubstringInsideWord(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	if err := x.Upsert(ctx, 7, "Paramotor collapse at Chamonix"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := x.Search(ctx, "amoni", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !slices.Equal(got, []int64{7}) {
		t.Errorf("got %v", got)
	}
}

func TestUpsert_Replaces(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	if err := x.Upsert(ctx, 1, "old wording"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := x.Upsert(ctx, 1, "new wording"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	old, err := x.Search(ctx, "old", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(old) != 0 {
		t.Errorf("stale entry still matches: %v", old)
	}
	ids, err := x.IDsWithEntries(ctx)
	if err != nil {
		t.Fatalf("IDsWithEntries: %v", err)
	}
	if len(ids) != 1 || !ids.Has(1) {
		t.Errorf("ids = %v", ids)
	}
}

func TestUpsert_StoresLowerCase(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	if err := x.Upsert(ctx, 3, "Engine OUT over Lac d'Annecy"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	var content string
	if err := x.db.QueryRowContext(ctx,
		`SELECT content FROM fts_incidents WHERE incident_id = ?`, 3).Scan(&content); err != nil {
		t.Fatalf("read content: %v", err)
	}
	if content != "engine out over lac d'annecy" {
		t.Errorf("content = %q", content)
	}
}

func TestDelete(t *testing.T) {
	x := newTestIndex(t)
	ctx := context.Background()
	if err := x.Upsert(ctx, 1, "something"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := x.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := x.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	ids, err := x.IDsWithEntries(ctx)
	if err != nil {
		t.Fatalf("IDsWithEntries: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v", ids)
	}
}

func TestSearch_Empty(t *testing.T) {
	x := newTestIndex(t)
	got, err := x.Search(context.Background(), "  ", 10)
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %v, %v", got, err)
	}
}
