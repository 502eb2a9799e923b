// Package sweep reconciles both indexes with the relational store.
package sweep

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/logger"
	"github.com/bakwc/ppg-incidents/internal/metrics"
)

// IndexReport is the outcome of one sweep for a single index.
type IndexReport struct {
	Index      string `json:"index"`
	Deleted    int    `json:"deleted"`
	Missing    int    `json:"missing"`
	Backfilled int    `json:"backfilled"`
}

// Service deletes orphan index entries and optionally backfills missing ones.
type Service struct {
	source     Source
	indexes    []Index
	backfiller Backfiller
	logger     *zap.Logger
}

// New creates a sweep service. backfiller may be nil when backfill is never requested.
func New(source Source, indexes []Index, backfiller Backfiller, logger *zap.Logger) *Service {
	return &Service{source: source, indexes: indexes, backfiller: backfiller, logger: logger}
}

// Run sweeps every index once.
func (s *Service) Run(ctx context.Context, backfill bool) ([]IndexReport, error) {
	if backfill && s.backfiller == nil {
		return nil, fmt.Errorf("sweep: backfill requested without a backfiller")
	}
	// Entries are listed before live ids: a row created in between then reads as missing, never as an orphan.
	entries := make([]incident.IDSet, len(s.indexes))
	for i, idx := range s.indexes {
		ids, err := idx.IDsWithEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s entries: %w", idx.Name(), err)
		}
		entries[i] = ids
	}
	live, err := s.source.AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list incident ids: %w", err)
	}

	log := logger.FromContext(ctx, s.logger)
	reports := make([]IndexReport, 0, len(s.indexes))
	for i, idx := range s.indexes {
		rep, err := s.sweepIndex(ctx, idx, entries[i], live, backfill)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
		log.Info("Sweep completed",
			zap.String("index", rep.Index),
			zap.Int("deleted", rep.Deleted),
			zap.Int("missing", rep.Missing),
			zap.Int("backfilled", rep.Backfilled),
		)
	}
	return reports, nil
}

func (s *Service) sweepIndex(
	ctx context.Context, idx Index, entries, live incident.IDSet, backfill bool,
) (IndexReport, error) {
	rep := IndexReport{Index: idx.Name()}

	for _, id := range entries.Diff(live) {
		if err := idx.Delete(ctx, id); err != nil {
			return rep, fmt.Errorf("delete %s orphan %d: %w", rep.Index, id, err)
		}
		rep.Deleted++
	}
	metrics.SweepEntriesTotal.WithLabelValues(rep.Index, "deleted").Add(float64(rep.Deleted))

	missing := live.Diff(entries)
	rep.Missing = len(missing)
	if !backfill || len(missing) == 0 {
		return rep, nil
	}
	n, err := s.backfiller.Backfill(ctx, rep.Index, missing)
	rep.Backfilled = n
	metrics.SweepEntriesTotal.WithLabelValues(rep.Index, "backfilled").Add(float64(n))
	if err != nil {
		return rep, fmt.Errorf("backfill %s: %w", rep.Index, err)
	}
	return rep, nil
}
