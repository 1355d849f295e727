// Package domain contains the core data types for the iSpot map screen.
// This package has zero external dependencies and is imported by every other
// internal package (catalog, viewmodel, mapview, service, handler).
package domain

import (
	"fmt"
	"strings"
)

// Category is the closed set of marker kinds shown on the map.
// The numeric values match the ones the mobile client has always used.
type Category int

const (
	CategoryPerson   Category = 1
	CategoryActivity Category = 2
	CategorySpot     Category = 3
)

// Categories lists every category in display order.
// Filtered marker lists are always assembled in this order.
var Categories = []Category{CategoryPerson, CategoryActivity, CategorySpot}

// String returns the upper-case wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryPerson:
		return "PERSON"
	case CategoryActivity:
		return "ACTIVITY"
	case CategorySpot:
		return "SPOT"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	return c == CategoryPerson || c == CategoryActivity || c == CategorySpot
}

// MarshalText encodes the category by name so JSON carries "PERSON", not 1.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: unknown category %d", ErrValidation, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts any spelling ParseCategory accepts.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory accepts the wire name ("PERSON") as well as the plural
// filter name used in URLs ("people", "activities", "spots").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "person", "people":
		return CategoryPerson, nil
	case "activity", "activities":
		return CategoryActivity, nil
	case "spot", "spots":
		return CategorySpot, nil
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrValidation, s)
}

// LatLng is a position in decimal degrees.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Icon describes how a marker is drawn. Hue follows the 0-360 colour wheel
// used by the map SDK's default marker factory.
type Icon struct {
	Name string  `json:"name"`
	Hue  float64 `json:"hue"`
}

// Marker is a point-of-interest annotation. Markers are created once when the
// catalog is initialized and never change afterwards.
type Marker struct {
	ID          string   `json:"id"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Icon        Icon     `json:"icon"`
}

// Position returns the marker location as a LatLng.
func (m Marker) Position() LatLng {
	return LatLng{Latitude: m.Latitude, Longitude: m.Longitude}
}
