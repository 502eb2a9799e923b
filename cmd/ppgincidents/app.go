package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/config"
	dbRedis "github.com/bakwc/ppg-incidents/internal/db/redis"
	"github.com/bakwc/ppg-incidents/internal/db/sqlite"
	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	logpkg "github.com/bakwc/ppg-incidents/internal/logger"
	"github.com/bakwc/ppg-incidents/internal/metrics"
	"github.com/bakwc/ppg-incidents/internal/repository/embcache"
	"github.com/bakwc/ppg-incidents/internal/repository/fts"
	increpo "github.com/bakwc/ppg-incidents/internal/repository/incident"
	"github.com/bakwc/ppg-incidents/internal/repository/vector"
	chiTransport "github.com/bakwc/ppg-incidents/internal/transport/chi"
	openaiEmb "github.com/bakwc/ppg-incidents/internal/transport/openai"
	"github.com/bakwc/ppg-incidents/internal/version"
	duplicateuc "github.com/bakwc/ppg-incidents/internal/usecase/duplicate"
	embeddinguc "github.com/bakwc/ppg-incidents/internal/usecase/embedding"
	healthuc "github.com/bakwc/ppg-incidents/internal/usecase/health"
	incidentuc "github.com/bakwc/ppg-incidents/internal/usecase/incident"
	searchuc "github.com/bakwc/ppg-incidents/internal/usecase/search"
	statsuc "github.com/bakwc/ppg-incidents/internal/usecase/stats"
	sweepuc "github.com/bakwc/ppg-incidents/internal/usecase/sweep"
)

// app is the composition root shared by every command.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	store  *sqlite.Store
	redis  *dbRedis.Store

	incidents  *incidentuc.Service
	search     *searchuc.Service
	duplicates *duplicateuc.Service
	stats      *statsuc.Service
	health     *healthuc.Service
	sweep      *sweepuc.Service
}

func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting ppg-incidents",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_path", cfg.Database.Path),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	a := &app{cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	store, err := sqlite.Open(ctx, sqlite.Config{Path: cfg.Database.Path, BusyTimeoutMS: cfg.Database.BusyTimeoutMS})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.store = store
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	if err := store.Migrate(ctx, append(increpo.Schema(), fts.Schema, vector.Schema)...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterEngineMetrics()
	metrics.RegisterHTTPMetrics()

	provider := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     a.logger,
	})

	// Pass a nil interface, not a typed nil pointer, when no remote cache is configured.
	var cachePinger healthuc.Pinger
	var embedder domain.Embedder = provider
	cacheTTL := embcache.WithTTL(time.Duration(cfg.Cache.TTLHours) * time.Hour)
	switch cfg.Cache.Driver {
	case "sqlite":
		embedder = embcache.New(provider, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, a.logger, cacheTTL)
	case "redis":
		rstore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Cache.Redis.Addrs,
			Password:  cfg.Cache.Redis.Password,
			DB:        cfg.Cache.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		a.redis = rstore
		cachePinger = rstore
		embedder = embcache.New(provider, rstore, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, a.logger, cacheTTL)
	}
	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Provider, cfg.Embedding.Model,
		embeddinguc.RetryPolicy{
			Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			MaxRetries: cfg.Embedding.MaxRetries,
			Backoff:    time.Duration(cfg.Embedding.RetryBackoffMS) * time.Millisecond,
		}, a.logger)

	repo := increpo.New(store.DB())
	text := fts.New(store.DB())
	vectors := vector.New(store.DB(), cfg.Embedding.Dimensions)
	compiler := filter.NewCompiler(filter.IncidentRegistry())

	a.incidents = incidentuc.New(repo, text, vectors, embedder, a.logger)
	a.search = searchuc.New(repo, text, vectors, embedder, compiler, searchuc.Config{
		TextCandidates:     cfg.Search.TextCandidates,
		SemanticCandidates: cfg.Search.SemanticCandidates,
	}, a.logger)
	a.duplicates = duplicateuc.New(repo, vectors, embedder, cfg.Search.DuplicateNeighbors, a.logger)
	a.stats = statsuc.New(repo, compiler, a.logger)
	a.health = healthuc.New(store, cachePinger, provider)
	a.sweep = sweepuc.New(repo, []sweepuc.Index{text, vectors}, a.incidents, a.logger)

	a.logger.Info("Services wired",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)
	return nil
}

// serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	server := chiTransport.NewServer(a.incidents, a.search, a.duplicates, a.stats, a.health, chiTransport.Config{
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
		APIKeys:         cfg.Auth.APIKeys,
	}, a.logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(a.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(a.logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	runner := sweepuc.NewRunner(a.sweep, time.Duration(cfg.Sweep.IntervalSec)*time.Second, cfg.Sweep.Backfill, a.logger)
	runner.Start(ctx)
	defer runner.Stop()

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}

// Close releases stores in reverse order of opening.
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}
