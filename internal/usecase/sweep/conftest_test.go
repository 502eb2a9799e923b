package sweep

import (
	"context"
	"sync"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
)

type mockSource struct {
	mu    sync.Mutex
	ids   incident.IDSet
	err   error
	calls int
	// during runs inside AllIDs after the snapshot is taken.
	during func()
}

func (m *mockSource) AllIDs(_ context.Context) (incident.IDSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	ids := m.ids
	if m.during != nil {
		m.during()
	}
	return ids, m.err
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockIndex struct {
	name      string
	entries   incident.IDSet
	listErr   error
	deleteErr error
	deleted   []int64
}

func (m *mockIndex) Name() string { return m.name }

func (m *mockIndex) IDsWithEntries(_ context.Context) (incident.IDSet, error) {
	return m.entries, m.listErr
}

func (m *mockIndex) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

type mockBackfiller struct {
	fn    func(index string, ids []int64) (int, error)
	calls map[string][]int64
}

func (m *mockBackfiller) Backfill(_ context.Context, index string, ids []int64) (int, error) {
	if m.calls == nil {
		m.calls = map[string][]int64{}
	}
	m.calls[index] = ids
	if m.fn != nil {
		return m.fn(index, ids)
	}
	return len(ids), nil
}
