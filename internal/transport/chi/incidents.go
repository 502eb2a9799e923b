package chi

import (
	"net/http"

	"github.com/bakwc/ppg-incidents/internal/domain/incident"
	"github.com/bakwc/ppg-incidents/internal/domain/search/filter"
	"github.com/bakwc/ppg-incidents/internal/domain/search/request"
)

// listResponse is one page of incidents.
type listResponse struct {
	Count    int                 `json:"count"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Results  []incident.Incident `json:"results"`
}

type duplicateCheckRequest struct {
	IncidentData *incident.Incident `json:"incident_data"`
	ExcludeUUID  string             `json:"exclude_uuid"`
}

type incidentsResponse struct {
	Incidents []incident.Incident `json:"incidents"`
}

// ListIncidents handles GET /api/incidents and /api/incidents/search.
func (s *Server) ListIncidents(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, request.Verified)
}

// ListUnverifiedIncidents handles GET /api/incidents/unverified.
func (s *Server) ListUnverifiedIncidents(w http.ResponseWriter, r *http.Request) {
	s.list(w, r, request.Unverified)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, scope request.Scope) {
	q := r.URL.Query()
	page, err := optionalInt(q, "page")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	pageSize, err := optionalInt(q, "page_size")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	orderBy := q.Get("order_by")
	if orderBy == "" && scope == request.Unverified {
		orderBy = "-created_at"
	}
	include, exclude := filter.SplitQuery(q)
	req, err := request.New(request.Params{
		TextQuery:     q.Get("text_search"),
		SemanticQuery: q.Get("semantic_search"),
		OrderBy:       orderBy,
		Include:       include,
		Exclude:       exclude,
		Page:          page,
		PageSize:      pageSize,
		Scope:         scope,
	}, s.cfg.DefaultPageSize, s.cfg.MaxPageSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Count:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
		Results:  res.Items,
	})
}

// GetIncident handles GET /api/incident/{uuid}.
func (s *Server) GetIncident(w http.ResponseWriter, r *http.Request) {
	uuid, err := pathUUID(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	inc, err := s.incidents.Get(r.Context(), uuid)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inc)
}

// SaveIncident handles POST /api/incident/save.
func (s *Server) SaveIncident(w http.ResponseWriter, r *http.Request) {
	var inc incident.Incident
	if err := decodeJSON(w, r, &inc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	saved, err := s.incidents.Save(r.Context(), &inc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// UpdateIncident handles POST /api/incident/{uuid}/update.
func (s *Server) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	uuid, err := pathUUID(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	var inc incident.Incident
	if err := decodeJSON(w, r, &inc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	updated, err := s.incidents.Update(r.Context(), uuid, &inc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteIncident handles POST /api/incident/{uuid}/delete and DELETE /api/incident/{uuid}.
func (s *Server) DeleteIncident(w http.ResponseWriter, r *http.Request) {
	uuid, err := pathUUID(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.incidents.Delete(r.Context(), uuid); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CheckDuplicate handles POST /api/incident/check_duplicate.
func (s *Server) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	var req duplicateCheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if req.IncidentData == nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "incident_data is required")
		return
	}
	exclude := ""
	if req.ExcludeUUID != "" {
		u, err := incident.ParseUUID(req.ExcludeUUID)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		exclude = u
	}

	res, err := s.duplicates.Check(r.Context(), req.IncidentData, exclude)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SimilarIncidents handles GET /api/incidents/duplicates?uuid=&limit=.
func (s *Server) SimilarIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw, err := requiredString(q, "uuid")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	uuid, err := incident.ParseUUID(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	limit, err := optionalInt(q, "limit")
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	similar, err := s.duplicates.Similar(r.Context(), uuid, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, incidentsResponse{Incidents: similar})
}
