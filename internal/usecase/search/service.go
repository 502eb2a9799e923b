// Package search answers list, keyword and semantic incident queries.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/mode"
	"github.com/bakwc/ppg-incidents/internal/domain/search/request"
	"github.com/bakwc/ppg-incidents/internal/domain/search/result"
	"github.com/bakwc/ppg-incidents/internal/logger"
	"github.com/bakwc/ppg-incidents/internal/metrics"
)

// Default candidate counts pulled from each index before relational filtering.
const (
	DefaultTextCandidates     = 100
	DefaultSemanticCandidates = 100
)

// Config bounds index lookups.
type Config struct {
	TextCandidates     int
	SemanticCandidates int
}

// Service handles incident list and search across list, keyword and semantic modes.
type Service struct {
	repo     Repository
	text     TextIndex
	vectors  VectorIndex
	embed    Embedder
	compiler *filter.Compiler
	cfg      Config
	logger   *zap.Logger
}

// New creates a search service.
func New(
	repo Repository, text TextIndex, vectors VectorIndex, embed Embedder,
	compiler *filter.Compiler, cfg Config, logger *zap.Logger,
) *Service {
	if cfg.TextCandidates <= 0 {
		cfg.TextCandidates = DefaultTextCandidates
	}
	if cfg.SemanticCandidates <= 0 {
		cfg.SemanticCandidates = DefaultSemanticCandidates
	}
	return &Service{
		repo:     repo,
		text:     text,
		vectors:  vectors,
		embed:    embed,
		compiler: compiler,
		cfg:      cfg,
		logger:   logger,
	}
}

// Search compiles the request filters, then either orders the relational set or
// filters an index ranking while keeping its order.
func (s *Service) Search(ctx context.Context, req *request.Request) (result.Page[incident.Incident], error) {
	filters, err := s.compiler.CompilePair(req.Include(), req.Exclude())
	if err != nil {
		return result.Page[incident.Incident]{}, fmt.Errorf("compile filters: %w", err)
	}
	where := filter.And(req.Scope().Clause(), filters)

	m := req.Mode()
	metrics.SearchRequestsTotal.WithLabelValues(string(m)).Inc()

	switch m {
	case mode.Keyword:
		ids, err := s.text.Search(ctx, req.TextQuery(), s.cfg.TextCandidates)
		if err != nil {
			return result.Page[incident.Incident]{}, fmt.Errorf("search text index: %w", err)
		}
		return s.ranked(ctx, req, ids, where)
	case mode.Semantic:
		ids, err := s.semanticIDs(ctx, req.SemanticQuery())
		if err != nil {
			return result.Page[incident.Incident]{}, err
		}
		return s.ranked(ctx, req, ids, where)
	default:
		return s.list(ctx, req, where)
	}
}

func (s *Service) list(
	ctx context.Context, req *request.Request, where filter.Clause,
) (result.Page[incident.Incident], error) {
	total, err := s.repo.Count(ctx, where)
	if err != nil {
		return result.Page[incident.Incident]{}, fmt.Errorf("count incidents: %w", err)
	}
	items, err := s.repo.List(ctx, where, req.Order().SQL(), req.PageSize(), req.Offset())
	if err != nil {
		return result.Page[incident.Incident]{}, fmt.Errorf("list incidents: %w", err)
	}
	if items == nil {
		items = []incident.Incident{}
	}
	return result.Page[incident.Incident]{
		Items:    items,
		Total:    total,
		Page:     req.Page(),
		PageSize: req.PageSize(),
	}, nil
}

func (s *Service) semanticIDs(ctx context.Context, query string) ([]int64, error) {
	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}
	neighbors, err := s.vectors.Search(ctx, emb.Embedding, s.cfg.SemanticCandidates, nil)
	if err != nil {
		return nil, fmt.Errorf("search vector index: %w", err)
	}
	return result.IDs(neighbors), nil
}

func (s *Service) ranked(
	ctx context.Context, req *request.Request, ids []int64, where filter.Clause,
) (result.Page[incident.Incident], error) {
	rows, err := s.repo.FilterIDs(ctx, ids, where)
	if err != nil {
		return result.Page[incident.Incident]{}, fmt.Errorf("filter ranked ids: %w", err)
	}
	merged := result.MergeRanked(ids, rows, incidentID)

	logger.FromContext(ctx, s.logger).Debug("Ranked search merged",
		zap.String("mode", string(req.Mode())),
		zap.Int("candidates", len(ids)),
		zap.Int("matched", len(merged)),
	)

	return result.Paginate(merged, req.Page(), req.PageSize()), nil
}

func incidentID(i incident.Incident) int64 { return i.ID }
