// Package handler implements the HTTP handlers for the iSpot API.
// All handlers are methods on Server; Routes wires them into a chi router.
// Methods are split into files by resource but share the same Server struct.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/mapview"
	"github.com/ECHOzdjd/iSpot/internal/provider/permission"
	"github.com/ECHOzdjd/iSpot/internal/service"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// SessionServicer defines the operations the handlers depend on. It is
// declared here, in the consumer, so tests can inject a mock.
type SessionServicer interface {
	Catalog(ctx context.Context) ([]domain.Marker, error)
	Create(ctx context.Context) (service.SessionState, error)
	Get(ctx context.Context, id uuid.UUID) (service.SessionState, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Toggle(ctx context.Context, id uuid.UUID, c domain.Category) (domain.FilterState, []domain.Marker, error)
	Markers(ctx context.Context, id uuid.UUID) (domain.FilterState, []domain.Marker, error)
	Search(ctx context.Context, id uuid.UUID, keyword string, pageSize, pageOffset int) (viewmodel.SearchResult, error)
	RequestPermissions(ctx context.Context, id uuid.UUID, perms []domain.Permission) (permission.Grant, error)
	Location(ctx context.Context, id uuid.UUID) (viewmodel.LocationResult, error)
	Scene(ctx context.Context, id uuid.UUID) (mapview.Snapshot, error)
	WriteKML(ctx context.Context, id uuid.UUID, w io.Writer) error
}

// Server holds the handler dependencies.
type Server struct {
	sessions SessionServicer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(sessions SessionServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{sessions: sessions, log: log}
}

// Routes returns the API router. Middleware is applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Get("/markers", s.ListMarkers)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/filters/{category}/toggle", s.ToggleFilter)
			r.Get("/markers", s.ListSessionMarkers)
			r.Get("/search", s.SearchPlaces)
			r.Post("/permissions", s.RequestPermissions)
			r.Get("/location", s.GetLocation)
			r.Get("/scene", s.GetScene)
			r.Get("/scene.kml", s.GetSceneKML)
		})
	})
	return r
}

// sessionID parses the {id} path parameter, writing a 400 on failure.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("session id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
