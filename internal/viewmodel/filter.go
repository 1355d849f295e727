package viewmodel

import (
	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// TogglePeople flips the people filter.
func (vm *FilterViewModel) TogglePeople() { vm.Toggle(domain.CategoryPerson) }

// ToggleActivities flips the activities filter.
func (vm *FilterViewModel) ToggleActivities() { vm.Toggle(domain.CategoryActivity) }

// ToggleSpots flips the spots filter.
func (vm *FilterViewModel) ToggleSpots() { vm.Toggle(domain.CategorySpot) }

// Toggle flips the filter for category c and notifies observers.
// Unknown categories are ignored.
func (vm *FilterViewModel) Toggle(c domain.Category) {
	vm.mu.Lock()
	switch c {
	case domain.CategoryPerson:
		vm.filter.People = !vm.filter.People
	case domain.CategoryActivity:
		vm.filter.Activities = !vm.filter.Activities
	case domain.CategorySpot:
		vm.filter.Spots = !vm.filter.Spots
	default:
		vm.mu.Unlock()
		return
	}
	state := vm.filter
	vm.mu.Unlock()

	vm.log.Debug("filter toggled", "category", c.String(), "enabled", state.Enabled(c))
	vm.notify(Event{Type: EventMarkersChanged, Filters: state})
}

// IsPeopleEnabled reports the people filter.
func (vm *FilterViewModel) IsPeopleEnabled() bool { return vm.Filters().People }

// IsActivitiesEnabled reports the activities filter.
func (vm *FilterViewModel) IsActivitiesEnabled() bool { return vm.Filters().Activities }

// IsSpotsEnabled reports the spots filter.
func (vm *FilterViewModel) IsSpotsEnabled() bool { return vm.Filters().Spots }

// Filters returns a snapshot of all three toggles.
func (vm *FilterViewModel) Filters() domain.FilterState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.filter
}

// FilteredMarkers returns the markers the current toggles make visible.
//
// With every toggle off the whole catalog is returned: no filter means
// show everything, not show nothing. Otherwise the result is the markers of
// each enabled category, people first, then activities, then spots.
//
// When the source keeps its markers partitioned (CategorySource), the
// enabled sub-lists are concatenated as they are.
func (vm *FilterViewModel) FilteredMarkers() []domain.Marker {
	state := vm.Filters()
	var out []domain.Marker
	if cs, ok := vm.markers.(CategorySource); ok && state.Any() {
		out = unionCategories(cs, state)
	} else {
		out = filterMarkers(vm.markers.AllMarkers(), state)
	}
	vm.log.Debug("filtered markers",
		"visible", len(out),
		"people", state.People,
		"activities", state.Activities,
		"spots", state.Spots,
	)
	return out
}

func unionCategories(cs CategorySource, state domain.FilterState) []domain.Marker {
	out := []domain.Marker{}
	for _, c := range domain.Categories {
		if state.Enabled(c) {
			out = append(out, cs.ByCategory(c)...)
		}
	}
	return out
}

func filterMarkers(all []domain.Marker, state domain.FilterState) []domain.Marker {
	if all == nil {
		all = []domain.Marker{}
	}
	if !state.Any() {
		return all
	}
	out := make([]domain.Marker, 0, len(all))
	for _, c := range domain.Categories {
		if !state.Enabled(c) {
			continue
		}
		for _, m := range all {
			if m.Category == c {
				out = append(out, m)
			}
		}
	}
	return out
}
