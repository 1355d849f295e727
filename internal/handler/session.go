package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

const sessionNotFound = "session not found"

// MarkersResponse lists markers together with the filters that selected them.
type MarkersResponse struct {
	Filters *domain.FilterState `json:"filters,omitempty"`
	Count   int                 `json:"count"`
	Markers []domain.Marker     `json:"markers"`
}

// ListMarkers handles GET /markers: the whole catalog, unfiltered.
func (s *Server) ListMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := s.sessions.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, MarkersResponse{Count: len(markers), Markers: markers})
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	w.Header().Set("Location", "/sessions/"+st.ID.String())
	writeJSON(w, http.StatusCreated, st)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	st, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFilter handles POST /sessions/{id}/filters/{category}/toggle.
// category is people, activities or spots (singular forms are accepted too).
func (s *Server) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	c, err := domain.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
		return
	}
	filters, markers, err := s.sessions.Toggle(r.Context(), id, c)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MarkersResponse{Filters: &filters, Count: len(markers), Markers: markers})
}

// ListSessionMarkers handles GET /sessions/{id}/markers.
func (s *Server) ListSessionMarkers(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	filters, markers, err := s.sessions.Markers(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, MarkersResponse{Filters: &filters, Count: len(markers), Markers: markers})
}
