package chi

import (
	"net/http"

	domstats "github.com/bakwc/ppg-incidents/internal/domain/stats"
	statsuc "github.com/bakwc/ppg-incidents/internal/usecase/stats"
)

const defaultPercentile = 90

type filterPackRequest struct {
	Name string `json:"name"`
	filterPair
}

type dashboardRequest struct {
	FilterPacks []filterPackRequest `json:"filter_packs"`
}

type countryStatsRequest struct {
	filterPair
	Limit int `json:"limit"`
}

type percentileRequest struct {
	filterPair
	Percentile *float64 `json:"percentile"`
}

type resultsResponse[T any] struct {
	Results []T `json:"results"`
}

// DashboardStats handles POST /api/dashboard_stats.
func (s *Server) DashboardStats(w http.ResponseWriter, r *http.Request) {
	var req dashboardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	packs := make([]statsuc.Pack, len(req.FilterPacks))
	for i, p := range req.FilterPacks {
		q, err := p.Query()
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		packs[i] = statsuc.Pack{Name: p.Name, Query: q}
	}

	counts, err := s.stats.Dashboard(r.Context(), packs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse[domstats.PackCount]{Results: counts})
}

// CountryStats handles POST /api/country_stats.
func (s *Server) CountryStats(w http.ResponseWriter, r *http.Request) {
	var req countryStatsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	q, err := req.Query()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	counts, err := s.stats.CountryStats(r.Context(), q, req.Limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse[domstats.CountryCount]{Results: counts})
}

// YearStats handles POST /api/year_stats.
func (s *Server) YearStats(w http.ResponseWriter, r *http.Request) {
	var req filterPair
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	q, err := req.Query()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	counts, err := s.stats.YearStats(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resultsResponse[domstats.YearCount]{Results: counts})
}

// WindSpeedPercentile handles POST /api/wind_speed_percentile.
func (s *Server) WindSpeedPercentile(w http.ResponseWriter, r *http.Request) {
	var req percentileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	q, err := req.Query()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	p := float64(defaultPercentile)
	if req.Percentile != nil {
		p = *req.Percentile
	}
	res, err := s.stats.Percentile(r.Context(), q, statsuc.WindSpeedColumn, p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Countries handles GET /api/countries.
func (s *Server) Countries(w http.ResponseWriter, r *http.Request) {
	countries, err := s.stats.Countries(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"countries": countries})
}

// DateRange handles GET /api/date_range.
func (s *Server) DateRange(w http.ResponseWriter, r *http.Request) {
	span, err := s.stats.DateRange(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, span)
}
