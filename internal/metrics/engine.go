package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval and index maintenance metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "search_requests_total",
			Help:      "List and search requests by retrieval mode",
		},
		[]string{"mode"},
	)

	DuplicateChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duplicate_checks_total",
			Help:      "Duplicate checks by resulting confidence tier",
		},
		[]string{"confidence"},
	)

	IndexSyncFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_sync_failures_total",
			Help:      "Index writes that failed after the row was committed",
		},
		[]string{"index"},
	)

	SweepEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sweep_entries_total",
			Help:      "Index entries removed or backfilled by the sweep",
		},
		[]string{"index", "action"}, // "deleted" / "backfilled"
	)
)

var registerEngine sync.Once

// RegisterEngineMetrics registers retrieval and index metrics. Repeat calls are no-ops.
func RegisterEngineMetrics() {
	registerEngine.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal, DuplicateChecksTotal, IndexSyncFailuresTotal, SweepEntriesTotal)
	})
}
