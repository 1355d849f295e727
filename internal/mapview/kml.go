package mapview

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/twpayne/go-kml"
)

// EncodeKML writes snap as an indented KML document: one folder per pin
// group, a shared icon style per group and a LookAt matching the camera.
func EncodeKML(w io.Writer, name string, snap Snapshot) error {
	d := kml.Document(kml.Name(name))

	styles := make(map[string]*kml.SharedElement)
	folders := make(map[string]*kml.CompoundElement)
	var order []string

	for _, p := range snap.Pins {
		group := pinGroup(p)
		style, ok := styles[group]
		if !ok {
			style = kml.SharedStyle(
				"style-"+group,
				kml.IconStyle(kml.Color(hueColor(p.Icon.Hue))),
			)
			styles[group] = style
			d.Add(style)
		}

		folder := folders[group]
		if folder == nil {
			folder = kml.Folder(kml.Name(group))
			folders[group] = folder
			order = append(order, group)
		}

		folder.Add(kml.Placemark(
			kml.Name(p.Title),
			kml.Description(p.Description),
			kml.StyleURL(style.URL()),
			kml.Point(
				kml.Coordinates(kml.Coordinate{Lon: p.Position.Longitude, Lat: p.Position.Latitude}),
			),
		))
	}

	for _, g := range order {
		d.Add(folders[g])
	}

	d.Add(kml.LookAt(
		kml.Longitude(snap.Camera.Center.Longitude),
		kml.Latitude(snap.Camera.Center.Latitude),
		kml.Range(zoomRange(snap.Camera.Zoom)),
	))

	if err := kml.KML(d).WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("mapview.EncodeKML: %w", err)
	}
	return nil
}

func pinGroup(p Pin) string {
	if p.Kind == PinMarker && p.Category.Valid() {
		return p.Category.String()
	}
	return string(p.Kind)
}

// zoomRange approximates the eye distance, in metres, that shows as much
// ground as a web map at zoom.
func zoomRange(zoom float64) float64 {
	return earthCircumfM / math.Pow(2, zoom) * 2
}

// hueColor converts a marker hue in degrees to a fully saturated colour.
func hueColor(hue float64) color.Color {
	h := math.Mod(hue, 360)
	if h < 0 {
		h += 360
	}
	x := 1 - math.Abs(math.Mod(h/60, 2)-1)
	var r, g, b float64
	switch {
	case h < 60:
		r, g = 1, x
	case h < 120:
		r, g = x, 1
	case h < 180:
		g, b = 1, x
	case h < 240:
		g, b = x, 1
	case h < 300:
		r, b = x, 1
	default:
		r, b = 1, x
	}
	return color.RGBA{R: uint8(r * 255), G: uint8(g * 255), B: uint8(b * 255), A: 255}
}
