// Package mapview holds what a map screen is currently showing: the pins on
// the map and the camera looking at them. It stands in for the native map
// widget, so rendering a marker list or framing the camera only records the
// request; clients fetch the resulting scene as JSON or KML.
package mapview

import (
	"sync"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// Zoom levels used when the camera jumps to a single point.
const (
	DefaultZoom = 12
	FocusZoom   = 15
)

// HueBlue colours the user's own position pin.
const HueBlue = 240

// DefaultCamera looks at central Hangzhou.
func DefaultCamera() domain.Camera {
	return domain.Camera{
		Center: domain.LatLng{Latitude: 30.2741, Longitude: 120.1551},
		Zoom:   DefaultZoom,
	}
}

// PinKind tells catalog markers, search results and the user's position apart.
type PinKind string

const (
	PinMarker PinKind = "marker"
	PinPlace  PinKind = "place"
	PinSelf   PinKind = "self"
)

// Pin is one point drawn on the map. Category is set only for PinMarker.
type Pin struct {
	ID          string          `json:"id"`
	Kind        PinKind         `json:"kind"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Position    domain.LatLng   `json:"position"`
	Category    domain.Category `json:"category,omitempty"`
	Icon        domain.Icon     `json:"icon"`
}

// Snapshot is a point-in-time copy of a Scene.
type Snapshot struct {
	Pins   []Pin         `json:"pins"`
	Camera domain.Camera `json:"camera"`
}

// Scene is safe for concurrent use.
type Scene struct {
	mu     sync.RWMutex
	pins   []Pin
	camera domain.Camera
}

// NewScene returns an empty scene looking through camera.
func NewScene(camera domain.Camera) *Scene {
	return &Scene{camera: camera}
}

// RenderMarkers clears the map and draws markers.
func (s *Scene) RenderMarkers(markers []domain.Marker) {
	pins := make([]Pin, 0, len(markers))
	for _, m := range markers {
		pins = append(pins, Pin{
			ID:          m.ID,
			Kind:        PinMarker,
			Title:       m.Title,
			Description: m.Description,
			Position:    m.Position(),
			Category:    m.Category,
			Icon:        m.Icon,
		})
	}
	s.replace(pins)
}

// RenderPlaces clears the map and draws search results.
func (s *Scene) RenderPlaces(places []domain.Place) {
	pins := make([]Pin, 0, len(places))
	for _, p := range places {
		pins = append(pins, Pin{
			ID:          p.ID,
			Kind:        PinPlace,
			Title:       p.Name,
			Description: p.Address,
			Position:    p.Position(),
			Icon:        domain.Icon{Name: "place"},
		})
	}
	s.replace(pins)
}

// ShowSelf adds (or moves) the user's position pin without touching the camera.
func (s *Scene) ShowSelf(at domain.LatLng) {
	self := Pin{
		ID:          "self",
		Kind:        PinSelf,
		Title:       "我的位置",
		Description: "当前位置",
		Position:    at,
		Icon:        domain.Icon{Name: "self", Hue: HueBlue},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pins {
		if s.pins[i].Kind == PinSelf {
			s.pins[i] = self
			return
		}
	}
	s.pins = append(s.pins, self)
}

// FrameCamera moves the camera.
func (s *Scene) FrameCamera(c domain.Camera) {
	s.mu.Lock()
	s.camera = c
	s.mu.Unlock()
}

// Camera returns the current camera.
func (s *Scene) Camera() domain.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// Snapshot copies the scene.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pins := make([]Pin, len(s.pins))
	copy(pins, s.pins)
	return Snapshot{Pins: pins, Camera: s.camera}
}

func (s *Scene) replace(pins []Pin) {
	s.mu.Lock()
	s.pins = pins
	s.mu.Unlock()
}
