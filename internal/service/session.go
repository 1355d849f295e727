// Package service runs map screens on behalf of HTTP clients. Each session
// owns one FilterViewModel and the Scene it drives; the service wires view
// model events to scene updates the way the screen reacts to its observers.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/mapview"
	"github.com/ECHOzdjd/iSpot/internal/provider/permission"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// Catalog is the marker store sessions read from.
type Catalog interface {
	Initialize(ctx context.Context) error
	Initialized() bool
	AllMarkers() []domain.Marker
}

// Permissions grants and checks runtime permissions.
type Permissions interface {
	Request(ctx context.Context, perms []domain.Permission) (permission.Grant, error)
	Verify(token string, p domain.Permission) error
}

// Options configures a SessionService. Searcher, Locator and Permissions may
// be nil; the corresponding features then report failure.
type Options struct {
	Searcher    viewmodel.PlaceSearcher
	Locator     viewmodel.Locator
	Permissions Permissions
	Timeout     time.Duration
	Camera      domain.Camera
	Viewport    mapview.Viewport
	Logger      *slog.Logger
}

// SessionState is the client-visible summary of a session.
type SessionState struct {
	ID          uuid.UUID           `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	Filters     domain.FilterState  `json:"filters"`
	Camera      domain.Camera       `json:"camera"`
	Permissions []domain.Permission `json:"permissions"`
}

type session struct {
	id        uuid.UUID
	createdAt time.Time
	vm        *viewmodel.FilterViewModel
	scene     *mapview.Scene
	cancel    func()

	mu    sync.Mutex
	grant permission.Grant
}

// SessionService keeps sessions in memory.
type SessionService struct {
	catalog Catalog
	opts    Options
	log     *slog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionService constructs a SessionService over catalog.
func NewSessionService(catalog Catalog, opts Options) *SessionService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Camera == (domain.Camera{}) {
		opts.Camera = mapview.DefaultCamera()
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = mapview.Viewport{Width: 1080, Height: 1920}
	}
	return &SessionService{
		catalog:  catalog,
		opts:     opts,
		log:      opts.Logger,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
	}
}

// Catalog returns every marker. If the catalog failed to load at startup it
// is retried here; a second failure is reported as domain.ErrNotInitialized.
func (s *SessionService) Catalog(ctx context.Context) ([]domain.Marker, error) {
	if !s.catalog.Initialized() {
		if err := s.catalog.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("service.SessionService.Catalog: %w: %v", domain.ErrNotInitialized, err)
		}
	}
	return s.catalog.AllMarkers(), nil
}

// Create opens a session with every filter off, so the whole catalog is
// drawn and framed.
func (s *SessionService) Create(ctx context.Context) (SessionState, error) {
	sess := &session{
		id:        uuid.New(),
		createdAt: s.now().UTC(),
		vm: viewmodel.New(s.catalog, viewmodel.Options{
			Searcher: s.opts.Searcher,
			Locator:  s.opts.Locator,
			Timeout:  s.opts.Timeout,
			Logger:   s.log,
		}),
		scene: mapview.NewScene(s.opts.Camera),
	}
	sess.cancel = sess.vm.Subscribe(func(e viewmodel.Event) { s.onEvent(sess, e) })
	s.showMarkers(sess)

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session created", "session_id", sess.id)
	return s.state(sess), nil
}

// Get returns a session's state, or domain.ErrNotFound.
func (s *SessionService) Get(_ context.Context, id uuid.UUID) (SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionState{}, fmt.Errorf("service.SessionService.Get: %w", err)
	}
	return s.state(sess), nil
}

// Delete closes a session. Searches still in flight complete into the void.
func (s *SessionService) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("service.SessionService.Delete: %w", domain.ErrNotFound)
	}
	sess.cancel()
	s.log.InfoContext(ctx, "session deleted", "session_id", id)
	return nil
}

// Toggle flips one category filter and returns the new filters and the
// markers now visible.
func (s *SessionService) Toggle(_ context.Context, id uuid.UUID, c domain.Category) (domain.FilterState, []domain.Marker, error) {
	if !c.Valid() {
		return domain.FilterState{}, nil, fmt.Errorf("service.SessionService.Toggle: %w: unknown category", domain.ErrValidation)
	}
	sess, err := s.lookup(id)
	if err != nil {
		return domain.FilterState{}, nil, fmt.Errorf("service.SessionService.Toggle: %w", err)
	}
	sess.vm.Toggle(c)
	return sess.vm.Filters(), sess.vm.FilteredMarkers(), nil
}

// Markers returns the session's current filters and visible markers.
func (s *SessionService) Markers(_ context.Context, id uuid.UUID) (domain.FilterState, []domain.Marker, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return domain.FilterState{}, nil, fmt.Errorf("service.SessionService.Markers: %w", err)
	}
	return sess.vm.Filters(), sess.vm.FilteredMarkers(), nil
}

// Search runs a place search and waits for its single result. Provider
// trouble is reported in the result's Status, never as an error.
func (s *SessionService) Search(ctx context.Context, id uuid.UUID, keyword string, pageSize, pageOffset int) (viewmodel.SearchResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return viewmodel.SearchResult{}, fmt.Errorf("service.SessionService.Search: %w", err)
	}
	select {
	case res := <-sess.vm.SearchPlaces(ctx, keyword, pageSize, pageOffset):
		return res, nil
	case <-ctx.Done():
		return viewmodel.SearchResult{}, fmt.Errorf("service.SessionService.Search: %w", ctx.Err())
	}
}

// RequestPermissions asks the permission provider for perms and remembers
// the grant on the session. An empty request asks for the location set.
func (s *SessionService) RequestPermissions(ctx context.Context, id uuid.UUID, perms []domain.Permission) (permission.Grant, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return permission.Grant{}, fmt.Errorf("service.SessionService.RequestPermissions: %w", err)
	}
	if s.opts.Permissions == nil {
		return permission.Grant{Permissions: []domain.Permission{}}, nil
	}
	if len(perms) == 0 {
		perms = domain.LocationPermissions
	}
	grant, err := s.opts.Permissions.Request(ctx, perms)
	if err != nil {
		return permission.Grant{}, fmt.Errorf("service.SessionService.RequestPermissions: %w", err)
	}

	sess.mu.Lock()
	sess.grant = grant
	sess.mu.Unlock()

	s.log.InfoContext(ctx, "permissions requested", "session_id", id, "granted", grant.Permissions)
	return grant, nil
}

// Location finds the caller's position, pins it and centers the camera on
// it. The session must hold a location grant; otherwise
// domain.ErrPermissionDenied is returned without asking the locator.
func (s *SessionService) Location(ctx context.Context, id uuid.UUID) (viewmodel.LocationResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return viewmodel.LocationResult{}, fmt.Errorf("service.SessionService.Location: %w", err)
	}
	if err := s.checkLocationGrant(sess); err != nil {
		return viewmodel.LocationResult{}, fmt.Errorf("service.SessionService.Location: %w", err)
	}

	var res viewmodel.LocationResult
	select {
	case res = <-sess.vm.CurrentLocation(ctx):
	case <-ctx.Done():
		return viewmodel.LocationResult{}, fmt.Errorf("service.SessionService.Location: %w", ctx.Err())
	}

	if res.Location != nil {
		sess.scene.ShowSelf(*res.Location)
		sess.scene.FrameCamera(domain.Camera{Center: *res.Location, Zoom: mapview.FocusZoom})
	}
	return res, nil
}

// Scene returns what the session's map shows.
func (s *SessionService) Scene(_ context.Context, id uuid.UUID) (mapview.Snapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return mapview.Snapshot{}, fmt.Errorf("service.SessionService.Scene: %w", err)
	}
	return sess.scene.Snapshot(), nil
}

// WriteKML encodes the session's scene as KML.
func (s *SessionService) WriteKML(_ context.Context, id uuid.UUID, w io.Writer) error {
	sess, err := s.lookup(id)
	if err != nil {
		return fmt.Errorf("service.SessionService.WriteKML: %w", err)
	}
	if err := mapview.EncodeKML(w, "iSpot "+id.String(), sess.scene.Snapshot()); err != nil {
		return fmt.Errorf("service.SessionService.WriteKML: %w", err)
	}
	return nil
}

func (s *SessionService) lookup(id uuid.UUID) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (s *SessionService) state(sess *session) SessionState {
	sess.mu.Lock()
	perms := append([]domain.Permission{}, sess.grant.Permissions...)
	sess.mu.Unlock()
	return SessionState{
		ID:          sess.id,
		CreatedAt:   sess.createdAt,
		Filters:     sess.vm.Filters(),
		Camera:      sess.scene.Camera(),
		Permissions: perms,
	}
}

func (s *SessionService) checkLocationGrant(sess *session) error {
	if s.opts.Permissions == nil {
		return domain.ErrPermissionDenied
	}
	sess.mu.Lock()
	token := sess.grant.Token
	sess.mu.Unlock()
	if token == "" {
		return domain.ErrPermissionDenied
	}

	var errs []error
	for _, p := range domain.LocationPermissions {
		err := s.opts.Permissions.Verify(token, p)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *SessionService) onEvent(sess *session, e viewmodel.Event) {
	switch e.Type {
	case viewmodel.EventMarkersChanged:
		s.showMarkers(sess)
	case viewmodel.EventSearchResultsChanged:
		if e.Search.Query.Keyword == "" {
			return
		}
		sess.scene.RenderPlaces(e.Search.Places)
		if len(e.Search.Places) > 0 {
			sess.scene.FrameCamera(domain.Camera{Center: e.Search.Places[0].Position(), Zoom: mapview.FocusZoom})
		}
	}
}

// showMarkers draws the visible markers and fits the camera around them.
func (s *SessionService) showMarkers(sess *session) {
	markers := sess.vm.FilteredMarkers()
	sess.scene.RenderMarkers(markers)

	points := make([]domain.LatLng, 0, len(markers))
	for _, m := range markers {
		points = append(points, m.Position())
	}
	if cam, ok := mapview.FrameBounds(points, s.opts.Viewport, mapview.DefaultPadding); ok {
		sess.scene.FrameCamera(cam)
	}
	s.log.Debug("markers rendered", "session_id", sess.id, "count", len(markers))
}
