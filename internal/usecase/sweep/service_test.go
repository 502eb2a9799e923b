package sweep

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

func TestRun_DeletesOrphans(t *testing.T) {
	src := &mockSource{ids: incident.NewIDSet(1, 2, 3)}
	text := &mockIndex{name: "fts", entries: incident.NewIDSet(1, 2, 3, 7, 5)}
	vec := &mockIndex{name: "vector", entries: incident.NewIDSet(1, 9)}
	bf := &mockBackfiller{}

	reports, err := New(src, []Index{text, vec}, bf, zap.NewNop()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(text.deleted, []int64{5, 7}) {
		t.Errorf("fts deleted = %v", text.deleted)
	}
	if !slices.Equal(vec.deleted, []int64{9}) {
		t.Errorf("vector deleted = %v", vec.deleted)
	}
	want := []IndexReport{
		{Index: "fts", Deleted: 2},
		{Index: "vector", Deleted: 1, Missing: 2},
	}
	if !slices.Equal(reports, want) {
		t.Errorf("reports = %+v", reports)
	}
	if bf.calls != nil {
		t.Error("backfill must not run unless requested")
	}
}

func TestRun_KeepsEntryOfIncidentCreatedDuringSweep(t *testing.T) {
	text := &mockIndex{name: "fts", entries: incident.NewIDSet()}
	src := &mockSource{ids: incident.NewIDSet()}
	src.during = func() {
		src.ids = incident.NewIDSet(1)
		text.entries = incident.NewIDSet(1)
	}

	reports, err := New(src, []Index{text}, &mockBackfiller{}, zap.NewNop()).Run(context.Background(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(text.deleted) != 0 {
		t.Errorf("deleted entries of a live incident: %v", text.deleted)
	}
	if reports[0] != (IndexReport{Index: "fts"}) {
		t.Errorf("report = %+v", reports[0])
	}
}

func TestRun_ListsEntriesBeforeLiveIDs(t *testing.T) {
	boom := errors.New("boom")
	src := &mockSource{ids: incident.NewIDSet(1)}
	idx := &mockIndex{name: "vector", listErr: boom}

	if _, err := New(src, []Index{idx}, nil, zap.NewNop()).Run(context.Background(), false); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if src.callCount() != 0 {
		t.Error("live ids read before index entries")
	}
}

func TestRun_Backfill(t *testing.T) {
	src := &mockSource{ids: incident.NewIDSet(1, 2, 3, 4)}
	vec := &mockIndex{name: "vector", entries: incident.NewIDSet(2)}
	bf := &mockBackfiller{}

	reports, err := New(src, []Index{vec}, bf, zap.NewNop()).Run(context.Background(), true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(bf.calls["vector"], []int64{1, 3, 4}) {
		t.Errorf("backfilled ids = %v", bf.calls["vector"])
	}
	if reports[0].Backfilled != 3 || reports[0].Missing != 3 {
		t.Errorf("report = %+v", reports[0])
	}
}

func TestRun_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		src      *mockSource
		idx      *mockIndex
		bf       Backfiller
		backfill bool
	}{
		{
			name: "source",
			src:  &mockSource{err: boom},
			idx:  &mockIndex{name: "fts"},
		},
		{
			name: "list entries",
			src:  &mockSource{ids: incident.NewIDSet(1)},
			idx:  &mockIndex{name: "fts", listErr: boom},
		},
		{
			name: "delete",
			src:  &mockSource{ids: incident.NewIDSet(1)},
			idx:  &mockIndex{name: "fts", entries: incident.NewIDSet(2), deleteErr: boom},
		},
		{
			name:     "backfill",
			src:      &mockSource{ids: incident.NewIDSet(1)},
			idx:      &mockIndex{name: "fts", entries: incident.NewIDSet()},
			bf:       &mockBackfiller{fn: func(string, []int64) (int, error) { return 0, boom }},
			backfill: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.src, []Index{tt.idx}, tt.bf, zap.NewNop()).Run(context.Background(), tt.backfill)
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}
		})
	}
}

func TestRun_BackfillWithoutBackfiller(t *testing.T) {
	src := &mockSource{ids: incident.NewIDSet(1)}
	if _, err := New(src, nil, nil, zap.NewNop()).Run(context.Background(), true); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunner_SweepsUntilStopped(t *testing.T) {
	src := &mockSource{ids: incident.NewIDSet()}
	r := NewRunner(New(src, nil, nil, zap.NewNop()), 5*time.Millisecond, false, zap.NewNop())

	r.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for src.callCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("runner did not sweep")
		}
		time.Sleep(time.Millisecond)
	}
	r.Stop()

	after := src.callCount()
	time.Sleep(20 * time.Millisecond)
	if src.callCount() != after {
		t.Error("runner kept sweeping after Stop")
	}
	r.Stop()
}

func TestRunner_DisabledInterval(t *testing.T) {
	src := &mockSource{}
	r := NewRunner(New(src, nil, nil, zap.NewNop()), 0, false, zap.NewNop())
	r.Start(context.Background())
	r.Stop()
	if src.callCount() != 0 {
		t.Error("disabled runner swept")
	}
}
