// Package viewmodel implements the map screen's view state: three category
// toggles, the markers they make visible, and the asynchronous place-search
// and current-location queries the screen issues.
package viewmodel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// DefaultTimeout bounds search and location requests when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// MarkerSource is the catalog the view model filters. *catalog.Store satisfies it.
type MarkerSource interface {
	AllMarkers() []domain.Marker
}

// CategorySource is a MarkerSource that also serves its markers one
// category at a time, in catalog order. *catalog.Store satisfies it.
type CategorySource interface {
	MarkerSource
	ByCategory(c domain.Category) []domain.Marker
}

// PlaceSearcher looks places up by keyword.
type PlaceSearcher interface {
	SearchPlacesByKeyword(ctx context.Context, keyword string, pageSize, pageOffset int) (domain.PlaceSearchResponse, error)
}

// LocationClient produces a single location fix and must be closed afterwards.
type LocationClient interface {
	Start(ctx context.Context) (domain.LocationFix, error)
	Close() error
}

// Locator opens one-shot location clients.
type Locator interface {
	NewLocationClient() (LocationClient, error)
}

// Options configures a FilterViewModel. Searcher and Locator may be nil, in
// which case searches report SearchFailed and location reports
// LocationProviderError.
type Options struct {
	Searcher PlaceSearcher
	Locator  Locator
	Timeout  time.Duration
	Logger   *slog.Logger
}

// FilterViewModel is the state behind one map screen.
//
// Toggles and queries are synchronous. SearchPlaces and CurrentLocation return
// channels that receive exactly one value and are then closed.
type FilterViewModel struct {
	markers  MarkerSource
	searcher PlaceSearcher
	locator  Locator
	timeout  time.Duration
	log      *slog.Logger

	mu         sync.Mutex
	filter     domain.FilterState
	searchGen  uint64
	lastSearch SearchResult
	observers  map[int]func(Event)
	nextObs    int
}

// New constructs a FilterViewModel over markers with every toggle off.
func New(markers MarkerSource, opts Options) *FilterViewModel {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &FilterViewModel{
		markers:    markers,
		searcher:   opts.Searcher,
		locator:    opts.Locator,
		timeout:    opts.Timeout,
		log:        opts.Logger,
		lastSearch: SearchResult{Places: []domain.Place{}, Status: domain.SearchEmpty},
		observers:  make(map[int]func(Event)),
	}
}
