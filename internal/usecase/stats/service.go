// Package stats answers aggregate questions over verified incidents.
package stats

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/request"
	domstats "github.com/bakwc/ppg-incidents/internal/domain/stats"
	"github.com/bakwc/ppg-incidents/internal/logger"
)

// WindSpeedColumn is the column behind the wind speed percentile.
const WindSpeedColumn = "wind_speed_ms"

// Query is an include/exclude filter pair.
type Query struct {
	Include filter.Spec
	Exclude filter.Spec
}

// Pack is a named Query counted by Dashboard.
type Pack struct {
	Name string
	Query
}

// Service computes statistics.
type Service struct {
	repo     Repository
	compiler *filter.Compiler
	scope    request.Scope
	logger   *zap.Logger
}

// New creates a stats service over verified incidents.
func New(repo Repository, compiler *filter.Compiler, logger *zap.Logger) *Service {
	return &Service{repo: repo, compiler: compiler, scope: request.Verified, logger: logger}
}

// CountryStats counts matching incidents per country, most frequent first.
func (s *Service) CountryStats(ctx context.Context, q Query, limit int) ([]domstats.CountryCount, error) {
	where, err := s.where(q)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.CountByCountry(ctx, where, limit)
	if err != nil {
		return nil, fmt.Errorf("country stats: %w", err)
	}
	return out, nil
}

// YearStats counts matching incidents per year, ascending.
func (s *Service) YearStats(ctx context.Context, q Query) ([]domstats.YearCount, error) {
	where, err := s.where(q)
	if err != nil {
		return nil, err
	}
	out, err := s.repo.CountByYear(ctx, where)
	if err != nil {
		return nil, fmt.Errorf("year stats: %w", err)
	}
	return out, nil
}

// Percentile computes the p-th percentile of column over matching incidents.
func (s *Service) Percentile(ctx context.Context, q Query, column string, p float64) (domstats.PercentileResult, error) {
	if err := domstats.ValidatePercentile(p); err != nil {
		return domstats.PercentileResult{}, err
	}
	where, err := s.where(q)
	if err != nil {
		return domstats.PercentileResult{}, err
	}
	values, err := s.repo.NumericValues(ctx, column, where)
	if err != nil {
		return domstats.PercentileResult{}, fmt.Errorf("percentile: %w", err)
	}

	res := domstats.PercentileResult{Percentile: p, Count: len(values)}
	if v, ok := domstats.Percentile(values, p); ok {
		res.Value = &v
	}
	return res, nil
}

// Dashboard counts every pack. All packs compile before the first count runs.
func (s *Service) Dashboard(ctx context.Context, packs []Pack) ([]domstats.PackCount, error) {
	clauses := make([]filter.Clause, len(packs))
	for i, p := range packs {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("%w: filter pack %d has no name", domain.ErrInvalidRequest, i)
		}
		where, err := s.where(p.Query)
		if err != nil {
			return nil, fmt.Errorf("filter pack %q: %w", p.Name, err)
		}
		clauses[i] = where
	}

	out := make([]domstats.PackCount, len(packs))
	for i, p := range packs {
		n, err := s.repo.Count(ctx, clauses[i])
		if err != nil {
			return nil, fmt.Errorf("count pack %q: %w", p.Name, err)
		}
		out[i] = domstats.PackCount{Name: p.Name, Count: n}
	}
	logger.FromContext(ctx, s.logger).Debug("Dashboard stats computed", zap.Int("packs", len(packs)))
	return out, nil
}

// Countries lists the distinct countries of verified incidents.
func (s *Service) Countries(ctx context.Context) ([]string, error) {
	out, err := s.repo.Countries(ctx, s.scope.Clause())
	if err != nil {
		return nil, fmt.Errorf("countries: %w", err)
	}
	return out, nil
}

// DateRange returns the span of verified incident dates.
func (s *Service) DateRange(ctx context.Context) (domstats.DateRange, error) {
	out, err := s.repo.DateRange(ctx, s.scope.Clause())
	if err != nil {
		return domstats.DateRange{}, fmt.Errorf("date range: %w", err)
	}
	return out, nil
}

func (s *Service) where(q Query) (filter.Clause, error) {
	clause, err := s.compiler.CompilePair(q.Include, q.Exclude)
	if err != nil {
		return filter.Clause{}, err
	}
	return filter.And(clause, s.scope.Clause()), nil
}
