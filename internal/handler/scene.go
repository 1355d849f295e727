package handler

import (
	"bytes"
	"net/http"
)

// GetScene handles GET /sessions/{id}/scene: the pins on the map and the camera.
func (s *Server) GetScene(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := s.sessions.Scene(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetSceneKML handles GET /sessions/{id}/scene.kml.
// The document is rendered into memory first so an encoding failure can
// still produce an error response.
func (s *Server) GetSceneKML(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := s.sessions.WriteKML(r.Context(), id, &buf); err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.Header().Set("Content-Disposition", `attachment; filename="scene.kml"`)
	_, _ = w.Write(buf.Bytes())
}
