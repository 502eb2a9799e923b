package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bakwc/ppg-incidents/internal/domain"
	"github.com/bakwc/ppg-incidents/internal/logger"
	duplicateuc "github.com/bakwc/ppg-incidents/internal/usecase/duplicate"
	healthuc "github.com/bakwc/ppg-incidents/internal/usecase/health"
	incidentuc "github.com/bakwc/ppg-incidents/internal/usecase/incident"
	searchuc "github.com/bakwc/ppg-incidents/internal/usecase/search"
	statsuc "github.com/bakwc/ppg-incidents/internal/usecase/stats"
)

// errorCode is the machine-readable part of an error response.
type errorCode string

const (
	codeBadRequest           errorCode = "bad_request"
	codeInvalidFilterValue   errorCode = "invalid_filter_value"
	codeUnauthorized         errorCode = "unauthorized"
	codeNotFound             errorCode = "not_found"
	codeEmbeddingUnavailable errorCode = "embedding_unavailable"
	codeDimensionMismatch    errorCode = "dimension_mismatch"
	codeInternalError        errorCode = "internal_error"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Config tunes request parsing.
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
	APIKeys         []string
}

// Server serves the incidents HTTP API.
type Server struct {
	incidents     *incidentuc.Service
	search        *searchuc.Service
	duplicates    *duplicateuc.Service
	stats         *statsuc.Service
	health        *healthuc.Service
	cfg           Config
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	incidents *incidentuc.Service,
	search *searchuc.Service,
	duplicates *duplicateuc.Service,
	stats *statsuc.Service,
	health *healthuc.Service,
	cfg Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		incidents:  incidents,
		search:     search,
		duplicates: duplicates,
		stats:      stats,
		health:     health,
		cfg:        cfg,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		messageHandler(domain.ErrFilterValue, http.StatusBadRequest, codeInvalidFilterValue),
		messageHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, codeEmbeddingUnavailable),
		s.dimensionMismatchHandler,
	}
	return s
}

// Routes mounts every endpoint on r. Write routes require an API key when any is configured.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/incidents", s.ListIncidents)
		r.Get("/incidents/search", s.ListIncidents)
		r.Get("/incidents/unverified", s.ListUnverifiedIncidents)
		r.Get("/incidents/duplicates", s.SimilarIncidents)
		r.Get("/incident/{uuid}", s.GetIncident)
		r.Post("/incident/check_duplicate", s.CheckDuplicate)

		r.Get("/countries", s.Countries)
		r.Get("/date_range", s.DateRange)
		r.Post("/dashboard_stats", s.DashboardStats)
		r.Post("/country_stats", s.CountryStats)
		r.Post("/year_stats", s.YearStats)
		r.Post("/wind_speed_percentile", s.WindSpeedPercentile)

		r.Group(func(r chi.Router) {
			r.Use(RequireAPIKey(s.cfg.APIKeys))
			r.Post("/incident/save", s.SaveIncident)
			r.Post("/incident/{uuid}/update", s.UpdateIncident)
			r.Post("/incident/{uuid}/delete", s.DeleteIncident)
			r.Delete("/incident/{uuid}", s.DeleteIncident)
		})
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidRequest,
		domain.ErrFilterValue,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// messageHandler is sentinelHandler for validation errors whose text names the offending input.
func messageHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := safeDomainMessage(err)
		var fve *domain.FilterValueError
		switch {
		case errors.As(err, &fve):
			msg = fve.Error()
		case errors.Is(err, domain.ErrInvalidRequest):
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) dimensionMismatchHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	s.logger.Error("embedding dimension mismatch", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeDimensionMismatch, safeDomainMessage(err))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
