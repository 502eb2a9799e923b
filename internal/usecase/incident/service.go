// Package incident keeps the relational row and both indexes of an incident in step.
//
// The row is the source of truth. Index writes after a committed row are best
// effort: failures are logged, counted and left for the sweep to repair.
package incident

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	dominc "github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/logger"
	"github.com/bakwc/ppg-incidents/internal/metrics"
)

// Index names as reported by the adapters and used in metrics.
const (
	IndexText   = "fts"
	IndexVector = "vector"
)

const defaultBatchSize = 64

// Service handles incident writes with automatic indexing.
type Service struct {
	repo      Repository
	text      TextIndex
	vectors   VectorIndex
	embed     Embedder
	logger    *zap.Logger
	now       func() time.Time
	batchSize int
}

// New creates an incident lifecycle service.
func New(repo Repository, text TextIndex, vectors VectorIndex, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		text:      text,
		vectors:   vectors,
		embed:     embed,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		batchSize: defaultBatchSize,
	}
}

// WithClock overrides the timestamp source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithBatchSize configures how many incidents reindex and backfill embed per call.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// ReindexReport counts the entries written by Reindex.
type ReindexReport struct {
	Incidents int `json:"incidents"`
	Texts     int `json:"texts"`
	Vectors   int `json:"vectors"`
}

// Save inserts a new incident and indexes it. A missing uuid is generated.
func (s *Service) Save(ctx context.Context, inc *dominc.Incident) (dominc.Incident, error) {
	if err := inc.Validate(); err != nil {
		return dominc.Incident{}, err
	}
	if inc.UUID == "" {
		inc.UUID = dominc.NewUUID()
	} else {
		u, err := dominc.ParseUUID(inc.UUID)
		if err != nil {
			return dominc.Incident{}, err
		}
		inc.UUID = u
	}
	now := s.now()
	inc.CreatedAt, inc.UpdatedAt = now, now

	id, err := s.repo.Create(ctx, inc)
	if err != nil {
		return dominc.Incident{}, fmt.Errorf("create incident: %w", err)
	}
	inc.ID = id

	if err := s.index(ctx, inc); err != nil {
		return *inc, err
	}
	return *inc, nil
}

// Update replaces every field of the incident with uuid and reindexes it.
func (s *Service) Update(ctx context.Context, uuid string, inc *dominc.Incident) (dominc.Incident, error) {
	if err := inc.Validate(); err != nil {
		return dominc.Incident{}, err
	}
	existing, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return dominc.Incident{}, fmt.Errorf("get incident: %w", err)
	}
	inc.ID = existing.ID
	inc.UUID = existing.UUID
	inc.CreatedAt = existing.CreatedAt
	inc.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, inc); err != nil {
		return dominc.Incident{}, fmt.Errorf("update incident: %w", err)
	}
	if err := s.index(ctx, inc); err != nil {
		return *inc, err
	}
	return *inc, nil
}

// Delete removes the incident and then its index entries.
func (s *Service) Delete(ctx context.Context, uuid string) error {
	existing, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return fmt.Errorf("get incident: %w", err)
	}
	if err := s.repo.Delete(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}

	log := logger.FromContext(ctx, s.logger)
	if err := s.text.Delete(ctx, existing.ID); err != nil {
		s.syncFailed(log, IndexText, existing.ID, err)
	}
	if err := s.vectors.Delete(ctx, existing.ID); err != nil {
		s.syncFailed(log, IndexVector, existing.ID, err)
	}
	return nil
}

// Get returns one incident.
func (s *Service) Get(ctx context.Context, uuid string) (dominc.Incident, error) {
	inc, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return dominc.Incident{}, fmt.Errorf("get incident: %w", err)
	}
	return inc, nil
}

// ShowText returns the flattened text both indexes are built from.
func (s *Service) ShowText(ctx context.Context, uuid string) (string, error) {
	inc, err := s.Get(ctx, uuid)
	if err != nil {
		return "", err
	}
	return inc.Text(), nil
}

// Reindex rebuilds the text index for every incident and embeds those without
// a stored vector; force re-embeds all of them.
func (s *Service) Reindex(ctx context.Context, force bool) (ReindexReport, error) {
	var have dominc.IDSet
	if !force {
		var err error
		if have, err = s.vectors.IDsWithEntries(ctx); err != nil {
			return ReindexReport{}, fmt.Errorf("list vectors: %w", err)
		}
	}

	var report ReindexReport
	err := s.repo.Each(ctx, s.batchSize, func(batch []dominc.Incident) error {
		report.Incidents += len(batch)

		n, err := s.writeTexts(ctx, batch)
		report.Texts += n
		if err != nil {
			return err
		}

		pending := batch
		if !force {
			pending = nil
			for _, inc := range batch {
				if !have.Has(inc.ID) {
					pending = append(pending, inc)
				}
			}
		}
		n, err = s.writeVectors(ctx, pending)
		report.Vectors += n
		return err
	})
	if err != nil {
		return report, fmt.Errorf("reindex: %w", err)
	}

	logger.FromContext(ctx, s.logger).Info("Reindex completed",
		zap.Int("incidents", report.Incidents),
		zap.Int("texts", report.Texts),
		zap.Int("vectors", report.Vectors),
		zap.Bool("force", force),
	)
	return report, nil
}

// Backfill writes entries of the named index for the given incident ids.
// Ids that no longer exist are skipped.
func (s *Service) Backfill(ctx context.Context, index string, ids []int64) (int, error) {
	var written int
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))
		rows, err := s.repo.FilterIDs(ctx, ids[start:end], filter.Clause{})
		if err != nil {
			return written, fmt.Errorf("fetch incidents: %w", err)
		}

		var n int
		switch index {
		case IndexText:
			n, err = s.writeTexts(ctx, rows)
		case IndexVector:
			n, err = s.writeVectors(ctx, rows)
		default:
			return written, fmt.Errorf("backfill: unknown index %q", index)
		}
		written += n
		if err != nil {
			return written, fmt.Errorf("backfill %s: %w", index, err)
		}
	}
	return written, nil
}

// index writes both entries for a committed row. Only a dimension mismatch is returned.
func (s *Service) index(ctx context.Context, inc *dominc.Incident) error {
	log := logger.FromContext(ctx, s.logger)
	body := inc.Text()

	if err := s.text.Upsert(ctx, inc.ID, body); err != nil {
		s.syncFailed(log, IndexText, inc.ID, err)
	}

	emb, err := s.embed.Embed(ctx, body)
	if err == nil {
		err = s.vectors.Upsert(ctx, inc.ID, emb.Embedding)
	}
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			log.Error("Embedding dimension does not match vector index",
				zap.Int64("incident_id", inc.ID), zap.Error(err))
			return fmt.Errorf("index incident %s: %w", inc.UUID, err)
		}
		s.syncFailed(log, IndexVector, inc.ID, err)
	}
	return nil
}

func (s *Service) writeTexts(ctx context.Context, rows []dominc.Incident) (int, error) {
	for i := range rows {
		if err := s.text.Upsert(ctx, rows[i].ID, rows[i].Text()); err != nil {
			return i, fmt.Errorf("text index %d: %w", rows[i].ID, err)
		}
	}
	return len(rows), nil
}

func (s *Service) writeVectors(ctx context.Context, rows []dominc.Incident) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	texts := make([]string, len(rows))
	for i := range rows {
		texts[i] = rows[i].Text()
	}
	res, err := domain.EmbedMany(ctx, s.embed, texts)
	if err != nil {
		return 0, fmt.Errorf("embed batch: %w", err)
	}
	if len(res.Embeddings) != len(rows) {
		return 0, fmt.Errorf("embed batch: got %d vectors for %d texts", len(res.Embeddings), len(rows))
	}
	for i := range rows {
		if err := s.vectors.Upsert(ctx, rows[i].ID, res.Embeddings[i]); err != nil {
			return i, fmt.Errorf("vector index %d: %w", rows[i].ID, err)
		}
	}
	return len(rows), nil
}

func (s *Service) syncFailed(log *zap.Logger, index string, id int64, err error) {
	metrics.IndexSyncFailuresTotal.WithLabelValues(index).Inc()
	log.Warn("Index write failed, left for sweep",
		zap.String("index", index),
		zap.Int64("incident_id", id),
		zap.Error(err),
	)
}
