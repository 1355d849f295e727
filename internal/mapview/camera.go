package mapview

import (
	"math"

	"github.com/wroge/wgs84"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// Zoom range the framing camera is allowed to use.
const (
	MinZoom = 3
	MaxZoom = 19
)

// DefaultPadding is the margin, in pixels, kept between framed points and
// the viewport edge.
const DefaultPadding = 100

const (
	tileSize      = 256
	earthCircumfM = 2 * math.Pi * 6378137
)

var (
	toMercator   = wgs84.EPSG().Transform(4326, 3857)
	fromMercator = wgs84.EPSG().Transform(3857, 4326)
)

// Viewport is the size of the map widget in pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FrameBounds returns the camera that shows every point inside vp with
// paddingPx pixels to spare on each side. Bounds are computed in Web
// Mercator. A single point (or points that coincide) gets FocusZoom. The
// second return value is false when points is empty.
func FrameBounds(points []domain.LatLng, vp Viewport, paddingPx int) (domain.Camera, bool) {
	if len(points) == 0 {
		return domain.Camera{}, false
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		x, y, _ := toMercator(p.Longitude, p.Latitude, 0)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	lon, lat, _ := fromMercator((minX+maxX)/2, (minY+maxY)/2, 0)
	center := domain.LatLng{Latitude: lat, Longitude: lon}

	dx, dy := maxX-minX, maxY-minY
	if dx < 1e-6 && dy < 1e-6 {
		return domain.Camera{Center: center, Zoom: FocusZoom}, true
	}

	w, h := float64(vp.Width-2*paddingPx), float64(vp.Height-2*paddingPx)
	if w <= 0 || h <= 0 {
		w, h = float64(vp.Width), float64(vp.Height)
	}
	if w <= 0 || h <= 0 {
		return domain.Camera{Center: center, Zoom: MinZoom}, true
	}

	zoom := math.Min(fitZoom(dx, w), fitZoom(dy, h))
	zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom))
	return domain.Camera{Center: center, Zoom: zoom}, true
}

// fitZoom is the largest zoom at which span metres fit into px pixels.
func fitZoom(span, px float64) float64 {
	if span <= 0 {
		return math.Inf(1)
	}
	return math.Log2(earthCircumfM * px / (tileSize * span))
}
