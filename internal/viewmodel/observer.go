package viewmodel

import "github.com/ECHOzdjd/iSpot/internal/domain"

// EventType names what changed in the view model.
type EventType string

const (
	EventMarkersChanged       EventType = "markers_changed"
	EventSearchResultsChanged EventType = "search_results_changed"
)

// Event is delivered to subscribers after a change.
// Filters is set for EventMarkersChanged, Search for EventSearchResultsChanged.
type Event struct {
	Type    EventType
	Filters domain.FilterState
	Search  SearchResult
}

// Subscribe registers fn for change events and returns a function that
// removes it. fn runs on the goroutine that made the change and must not
// block.
func (vm *FilterViewModel) Subscribe(fn func(Event)) (cancel func()) {
	vm.mu.Lock()
	id := vm.nextObs
	vm.nextObs++
	vm.observers[id] = fn
	vm.mu.Unlock()

	return func() {
		vm.mu.Lock()
		delete(vm.observers, id)
		vm.mu.Unlock()
	}
}

func (vm *FilterViewModel) notify(e Event) {
	vm.mu.Lock()
	fns := make([]func(Event), 0, len(vm.observers))
	for _, fn := range vm.observers {
		fns = append(fns, fn)
	}
	vm.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
