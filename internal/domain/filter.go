package domain

// FilterState holds the three independent category toggles.
// The zero value (everything off) means "no filter": every marker is shown.
type FilterState struct {
	People     bool `json:"people"`
	Activities bool `json:"activities"`
	Spots      bool `json:"spots"`
}

// Any reports whether at least one toggle is on.
func (f FilterState) Any() bool {
	return f.People || f.Activities || f.Spots
}

// Enabled reports the toggle for one category.
func (f FilterState) Enabled(c Category) bool {
	switch c {
	case CategoryPerson:
		return f.People
	case CategoryActivity:
		return f.Activities
	case CategorySpot:
		return f.Spots
	}
	return false
}

// Camera is the visible map viewport: a center and a zoom level.
type Camera struct {
	Center LatLng  `json:"center"`
	Zoom   float64 `json:"zoom"`
}
