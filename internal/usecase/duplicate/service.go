// Package duplicate decides whether an incident report repeats an existing record.
//
// Tiers run strictly in order and the first non-empty one wins:
// High (exact country, date, site and pilot), Medium (partial field or link
// overlap) and Low (embedding neighbours, possibly empty).
package duplicate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	domdup "github.com/bakwc/ppg-incidents/internal/domain/duplicate"
	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
	"github.com/bakwc/ppg-incidents/internal/logger"
	"github.com/bakwc/ppg-incidents/internal/metrics"
)

// DefaultNeighbors is the size of the Low tier.
const DefaultNeighbors = 3

// fieldOrder lists tier matches oldest record first.
const fieldOrder = "date ASC, id ASC"

var linkColumns = []string{"source_links", "media_links"}

// Service runs the duplicate cascade.
type Service struct {
	repo      Repository
	vectors   VectorIndex
	embed     Embedder
	neighbors int
	logger    *zap.Logger
}

// New creates a duplicate detector. neighbors <= 0 uses DefaultNeighbors.
func New(repo Repository, vectors VectorIndex, embed Embedder, neighbors int, logger *zap.Logger) *Service {
	if neighbors <= 0 {
		neighbors = DefaultNeighbors
	}
	return &Service{repo: repo, vectors: vectors, embed: embed, neighbors: neighbors, logger: logger}
}

// Check runs the cascade for candidate. excludeUUID, when set, names the record the
// candidate is an edit of; it never appears in any tier.
func (s *Service) Check(ctx context.Context, candidate *incident.Incident, excludeUUID string) (domdup.Result, error) {
	var exclude *int64
	if excludeUUID != "" {
		existing, err := s.repo.GetByUUID(ctx, excludeUUID)
		if err != nil {
			return domdup.Result{}, fmt.Errorf("exclude_uuid: %w", err)
		}
		exclude = &existing.ID
	}

	res, err := s.cascade(ctx, candidate, exclude)
	if err != nil {
		return domdup.Result{}, err
	}

	metrics.DuplicateChecksTotal.WithLabelValues(string(res.Confidence)).Inc()
	logger.FromContext(ctx, s.logger).Debug("Duplicate check completed",
		zap.String("confidence", string(res.Confidence)),
		zap.Int("matches", len(res.Incidents)),
	)
	return res, nil
}

func (s *Service) cascade(ctx context.Context, c *incident.Incident, exclude *int64) (domdup.Result, error) {
	if high := highClause(c); !high.IsEmpty() {
		rows, err := s.repo.List(ctx, filter.And(high, notID(exclude)), fieldOrder, 0, 0)
		if err != nil {
			return domdup.Result{}, fmt.Errorf("high tier: %w", err)
		}
		if len(rows) > 0 {
			return domdup.Result{Confidence: domdup.High, Incidents: rows}, nil
		}
	}

	if medium := mediumClause(c); !medium.IsEmpty() {
		rows, err := s.repo.List(ctx, filter.And(medium, notID(exclude)), fieldOrder, 0, 0)
		if err != nil {
			return domdup.Result{}, fmt.Errorf("medium tier: %w", err)
		}
		if len(rows) > 0 {
			return domdup.Result{Confidence: domdup.Medium, Incidents: rows}, nil
		}
	}

	text := c.Text()
	if text == "" {
		return domdup.Result{Confidence: domdup.Low, Incidents: []incident.Incident{}}, nil
	}
	emb, err := s.embed.Embed(ctx, text)
	if err != nil {
		return domdup.Result{}, fmt.Errorf("low tier: %w", err)
	}
	rows, err := s.nearest(ctx, emb.Embedding, s.neighbors, exclude)
	if err != nil {
		return domdup.Result{}, fmt.Errorf("low tier: %w", err)
	}
	return domdup.Result{Confidence: domdup.Low, Incidents: rows}, nil
}

// Similar returns the nearest stored incidents to the one with uuid, excluding itself.
// An incident without a stored vector is embedded on the fly.
func (s *Service) Similar(ctx context.Context, uuid string, limit int) ([]incident.Incident, error) {
	if limit <= 0 {
		limit = s.neighbors
	}
	inc, err := s.repo.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}

	vec, err := s.vectors.Get(ctx, inc.ID)
	if errors.Is(err, domain.ErrNotFound) {
		emb, embErr := s.embed.Embed(ctx, inc.Text())
		if embErr != nil {
			return nil, fmt.Errorf("vectorize incident: %w", embErr)
		}
		vec, err = emb.Embedding, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vector: %w", err)
	}

	return s.nearest(ctx, vec, limit, &inc.ID)
}

func (s *Service) nearest(ctx context.Context, vec []float32, limit int, exclude *int64) ([]incident.Incident, error) {
	hits, err := s.vectors.Search(ctx, vec, limit, exclude)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	ids := result.IDs(hits)
	if len(ids) == 0 {
		return []incident.Incident{}, nil
	}
	rows, err := s.repo.FilterIDs(ctx, ids, filter.Clause{})
	if err != nil {
		return nil, fmt.Errorf("fetch neighbours: %w", err)
	}
	return result.MergeRanked(ids, rows, func(i incident.Incident) int64 { return i.ID }), nil
}

// highClause requires every identifying field; any unset field disables the tier.
func highClause(c *incident.Incident) filter.Clause {
	if c.Country == "" || c.Date == "" || c.CityOrSite == "" || c.Pilot == "" {
		return filter.Clause{}
	}
	return filter.And(
		filter.Raw("country = ?", c.Country),
		filter.Raw("date = ?", c.Date),
		filter.Raw("city_or_site = ?", c.CityOrSite),
		filter.Raw("pilot = ?", c.Pilot),
	)
}

// mediumClause is the union of country+date, country+pilot and per-link overlap.
func mediumClause(c *incident.Incident) filter.Clause {
	var parts []filter.Clause
	if c.Country != "" && c.Date != "" {
		parts = append(parts, filter.And(filter.Raw("country = ?", c.Country), filter.Raw("date = ?", c.Date)))
	}
	if c.Country != "" && c.Pilot != "" {
		parts = append(parts, filter.And(filter.Raw("country = ?", c.Country), filter.Raw("pilot = ?", c.Pilot)))
	}
	for _, link := range c.Links() {
		parts = append(parts, filter.ContainsFold(linkColumns, link))
	}
	return filter.Or(parts...)
}

func notID(id *int64) filter.Clause {
	if id == nil {
		return filter.Clause{}
	}
	return filter.Raw("id <> ?", *id)
}
