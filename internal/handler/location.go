package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// PermissionRequest is the body of POST /sessions/{id}/permissions.
// An empty list (or empty body) asks for the location permissions.
type PermissionRequest struct {
	Permissions []domain.Permission `json:"permissions"`
}

// LocationResponse is the body of GET /sessions/{id}/location.
// Location is null unless Status is "ok".
type LocationResponse struct {
	Status   domain.LocationStatus `json:"status"`
	Location *domain.LatLng        `json:"location"`
}

// RequestPermissions handles POST /sessions/{id}/permissions.
func (s *Server) RequestPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var req PermissionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, requestBody("request body too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, requestBody("malformed JSON body"))
		return
	}

	grant, err := s.sessions.RequestPermissions(r.Context(), id, req.Permissions)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}

// GetLocation handles GET /sessions/{id}/location. Without a location grant
// it answers 403; a provider failure is a 200 with a non-ok status.
func (s *Server) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	res, err := s.sessions.Location(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, LocationResponse{Status: res.Status, Location: res.Location})
}
