package viewmodel_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ECHOzdjd/iSpot/internal/catalog"
	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// ---- test doubles ----------------------------------------------------------

// mockSearcher is a function-field double for viewmodel.PlaceSearcher.
type mockSearcher struct {
	search func(ctx context.Context, keyword string, pageSize, pageOffset int) (domain.PlaceSearchResponse, error)
}

func (m *mockSearcher) SearchPlacesByKeyword(ctx context.Context, keyword string, pageSize, pageOffset int) (domain.PlaceSearchResponse, error) {
	return m.search(ctx, keyword, pageSize, pageOffset)
}

var _ viewmodel.PlaceSearcher = (*mockSearcher)(nil)

type mockLocationClient struct {
	start  func(ctx context.Context) (domain.LocationFix, error)
	closed atomic.Int32
}

func (c *mockLocationClient) Start(ctx context.Context) (domain.LocationFix, error) {
	return c.start(ctx)
}

func (c *mockLocationClient) Close() error {
	c.closed.Add(1)
	return nil
}

type mockLocator struct {
	client *mockLocationClient
	err    error
}

func (l *mockLocator) NewLocationClient() (viewmodel.LocationClient, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.client, nil
}

var _ viewmodel.Locator = (*mockLocator)(nil)

// ---- helpers ---------------------------------------------------------------

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededStore(t *testing.T) *catalog.Store {
	t.Helper()
	s := catalog.NewStore(catalog.StaticSource{}, catalog.DefaultIcons, quietLogger())
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func newVM(t *testing.T, opts viewmodel.Options) *viewmodel.FilterViewModel {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return viewmodel.New(seededStore(t), opts)
}

func ids(markers []domain.Marker) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		out = append(out, m.ID)
	}
	return out
}

func countByCategory(markers []domain.Marker, c domain.Category) int {
	n := 0
	for _, m := range markers {
		if m.Category == c {
			n++
		}
	}
	return n
}

func awaitSearch(t *testing.T, ch <-chan viewmodel.SearchResult) viewmodel.SearchResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		require.True(t, ok, "search channel closed without a result")
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("search never completed")
	}
	return viewmodel.SearchResult{}
}

func awaitLocation(t *testing.T, ch <-chan viewmodel.LocationResult) viewmodel.LocationResult {
	t.Helper()
	select {
	case res, ok := <-ch:
		require.True(t, ok, "location channel closed without a result")
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("location never completed")
	}
	return viewmodel.LocationResult{}
}

// ---- filter tests ----------------------------------------------------------

func TestFilteredMarkers_noFiltersReturnsWholeCatalog(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	got := vm.FilteredMarkers()

	assert.Len(t, got, 10)
	assert.Equal(t, ids(catalog.SeedMarkers()), ids(got))
}

func TestFilteredMarkers_peopleOnly(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	vm.TogglePeople()
	got := vm.FilteredMarkers()

	assert.Equal(t, []string{"person1", "person2", "person3"}, ids(got))
}

func TestFilteredMarkers_peopleAndSpotsKeepsCategoryOrder(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	vm.ToggleSpots()
	vm.TogglePeople()
	got := vm.FilteredMarkers()

	assert.Equal(t, []string{"person1", "person2", "person3", "spot1", "spot2", "spot3", "spot4"}, ids(got))
}

func TestFilteredMarkers_everySubsetIsUnionOfCategories(t *testing.T) {
	all := catalog.SeedMarkers()
	for mask := 1; mask < 8; mask++ {
		vm := newVM(t, viewmodel.Options{})
		want := 0
		if mask&1 != 0 {
			vm.TogglePeople()
			want += countByCategory(all, domain.CategoryPerson)
		}
		if mask&2 != 0 {
			vm.ToggleActivities()
			want += countByCategory(all, domain.CategoryActivity)
		}
		if mask&4 != 0 {
			vm.ToggleSpots()
			want += countByCategory(all, domain.CategorySpot)
		}

		got := vm.FilteredMarkers()

		require.Len(t, got, want, "mask %03b", mask)
		last := domain.Category(0)
		for _, m := range got {
			assert.True(t, vm.Filters().Enabled(m.Category), "mask %03b: %s should be hidden", mask, m.ID)
			assert.GreaterOrEqual(t, int(m.Category), int(last), "mask %03b: category order", mask)
			last = m.Category
		}
	}
}

func TestToggle_twiceRestoresState(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	vm.ToggleActivities()
	require.True(t, vm.IsActivitiesEnabled())
	vm.ToggleActivities()

	assert.False(t, vm.IsActivitiesEnabled())
	assert.False(t, vm.IsPeopleEnabled())
	assert.False(t, vm.IsSpotsEnabled())
	assert.Len(t, vm.FilteredMarkers(), 10)
}

func TestFilteredMarkers_isIdempotent(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})
	vm.ToggleSpots()

	first := vm.FilteredMarkers()
	second := vm.FilteredMarkers()

	assert.Equal(t, first, second)
}

func TestFilteredMarkers_uninitializedStoreIsEmpty(t *testing.T) {
	store := catalog.NewStore(catalog.StaticSource{}, catalog.DefaultIcons, quietLogger())
	vm := viewmodel.New(store, viewmodel.Options{Logger: quietLogger()})

	got := vm.FilteredMarkers()
	vm.TogglePeople()
	got2 := vm.FilteredMarkers()

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, got2)
}

func TestSubscribe_receivesToggleEvents(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})
	var events []viewmodel.Event
	cancel := vm.Subscribe(func(e viewmodel.Event) { events = append(events, e) })

	vm.TogglePeople()
	cancel()
	vm.TogglePeople()

	require.Len(t, events, 1)
	assert.Equal(t, viewmodel.EventMarkersChanged, events[0].Type)
	assert.True(t, events[0].Filters.People)
}

// ---- search tests ----------------------------------------------------------

func TestSearchPlaces_success(t *testing.T) {
	var gotSize, gotOffset int
	s := &mockSearcher{search: func(_ context.Context, kw string, size, offset int) (domain.PlaceSearchResponse, error) {
		gotSize, gotOffset = size, offset
		return domain.PlaceSearchResponse{
			ResultCode: domain.ResultCodeOK,
			Places:     []domain.Place{{ID: "p1", Name: kw}},
		}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 0, 0))

	assert.Equal(t, domain.SearchOK, res.Status)
	require.Len(t, res.Places, 1)
	assert.Equal(t, "coffee", res.Places[0].Name)
	assert.Equal(t, 10, gotSize, "zero page size falls back to the default")
	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, res, vm.SearchResults())
}

func TestSearchPlaces_providerErrorIsEmptyList(t *testing.T) {
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		return domain.PlaceSearchResponse{}, errors.New("network down")
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 0))

	require.NotNil(t, res.Places)
	assert.Empty(t, res.Places)
	assert.Equal(t, domain.SearchFailed, res.Status)
}

func TestSearchPlaces_badResultCodeIsEmptyList(t *testing.T) {
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		return domain.PlaceSearchResponse{ResultCode: 1802, Places: []domain.Place{{ID: "ignored"}}}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 0))

	assert.Empty(t, res.Places)
	assert.Equal(t, domain.SearchFailed, res.Status)
}

func TestSearchPlaces_zeroResults(t *testing.T) {
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		return domain.PlaceSearchResponse{ResultCode: domain.ResultCodeOK}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "nowhere", 10, 0))

	require.NotNil(t, res.Places)
	assert.Empty(t, res.Places)
	assert.Equal(t, domain.SearchEmpty, res.Status)
}

func TestSearchPlaces_blankKeywordSkipsProvider(t *testing.T) {
	called := false
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		called = true
		return domain.PlaceSearchResponse{}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "   ", 10, 0))

	assert.False(t, called)
	assert.Equal(t, domain.SearchEmpty, res.Status)
}

func TestSearchPlaces_timeoutWhenProviderNeverAnswers(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		<-release
		return domain.PlaceSearchResponse{}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s, Timeout: 20 * time.Millisecond})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 0))

	assert.Equal(t, domain.SearchTimeout, res.Status)
	assert.Empty(t, res.Places)
}

func TestSearchPlaces_staleResultDoesNotOverwriteNewer(t *testing.T) {
	slow := make(chan struct{})
	s := &mockSearcher{search: func(_ context.Context, kw string, _, _ int) (domain.PlaceSearchResponse, error) {
		if kw == "first" {
			<-slow
		}
		return domain.PlaceSearchResponse{
			ResultCode: domain.ResultCodeOK,
			Places:     []domain.Place{{ID: kw, Name: kw}},
		}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	firstCh := vm.SearchPlaces(context.Background(), "first", 10, 0)
	second := awaitSearch(t, vm.SearchPlaces(context.Background(), "second", 10, 0))
	close(slow)
	first := awaitSearch(t, firstCh)

	assert.Equal(t, "first", first.Places[0].ID, "caller still gets its own answer")
	assert.Equal(t, second, vm.SearchResults())
	assert.Equal(t, "second", vm.SearchResults().Places[0].ID)
}

func TestSearchPlaces_nilSearcherFails(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 0))

	assert.Equal(t, domain.SearchFailed, res.Status)
}

func TestSearchPlaces_notifiesObservers(t *testing.T) {
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		return domain.PlaceSearchResponse{ResultCode: domain.ResultCodeOK, Places: []domain.Place{{ID: "p"}}}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})
	got := make(chan viewmodel.Event, 1)
	vm.Subscribe(func(e viewmodel.Event) { got <- e })

	awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 0))

	e := <-got
	assert.Equal(t, viewmodel.EventSearchResultsChanged, e.Type)
	assert.Equal(t, domain.SearchOK, e.Search.Status)
}

// ---- location tests --------------------------------------------------------

func TestCurrentLocation_success(t *testing.T) {
	client := &mockLocationClient{start: func(context.Context) (domain.LocationFix, error) {
		return domain.LocationFix{Latitude: 30.27, Longitude: 120.15}, nil
	}}
	vm := newVM(t, viewmodel.Options{Locator: &mockLocator{client: client}})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	require.NotNil(t, res.Location)
	assert.Equal(t, domain.LocationOK, res.Status)
	assert.InDelta(t, 30.27, res.Location.Latitude, 1e-9)
	assert.EqualValues(t, 1, client.closed.Load(), "client must be released exactly once")
}

func TestCurrentLocation_errorCodeCollapsesToNone(t *testing.T) {
	client := &mockLocationClient{start: func(context.Context) (domain.LocationFix, error) {
		return domain.LocationFix{ErrorCode: 4, Message: "network"}, nil
	}}
	vm := newVM(t, viewmodel.Options{Locator: &mockLocator{client: client}})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	assert.Nil(t, res.Location)
	assert.Equal(t, domain.LocationProviderError, res.Status)
	assert.EqualValues(t, 1, client.closed.Load())
}

func TestCurrentLocation_permissionErrorCode(t *testing.T) {
	client := &mockLocationClient{start: func(context.Context) (domain.LocationFix, error) {
		return domain.LocationFix{ErrorCode: domain.LocationErrorPermission}, nil
	}}
	vm := newVM(t, viewmodel.Options{Locator: &mockLocator{client: client}})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	assert.Nil(t, res.Location)
	assert.Equal(t, domain.LocationPermissionDenied, res.Status)
}

func TestCurrentLocation_timeoutStillReleasesClient(t *testing.T) {
	client := &mockLocationClient{start: func(ctx context.Context) (domain.LocationFix, error) {
		<-ctx.Done()
		return domain.LocationFix{}, ctx.Err()
	}}
	vm := newVM(t, viewmodel.Options{Locator: &mockLocator{client: client}, Timeout: 20 * time.Millisecond})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	assert.Nil(t, res.Location)
	assert.Equal(t, domain.LocationTimeout, res.Status)
	assert.Eventually(t, func() bool { return client.closed.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCurrentLocation_clientCreationFails(t *testing.T) {
	vm := newVM(t, viewmodel.Options{Locator: &mockLocator{err: errors.New("no provider")}})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	assert.Nil(t, res.Location)
	assert.Equal(t, domain.LocationProviderError, res.Status)
}

func TestCurrentLocation_nilLocator(t *testing.T) {
	vm := newVM(t, viewmodel.Options{})

	res := awaitLocation(t, vm.CurrentLocation(context.Background()))

	assert.Equal(t, domain.LocationProviderError, res.Status)
}

// flatSource serves the catalog only as one list, in an order that mixes
// categories.
type flatSource struct {
	markers []domain.Marker
}

func (s flatSource) AllMarkers() []domain.Marker { return s.markers }

// countingStore records which categories were read through ByCategory.
type countingStore struct {
	*catalog.Store
	asked []domain.Category
}

func (s *countingStore) ByCategory(c domain.Category) []domain.Marker {
	s.asked = append(s.asked, c)
	return s.Store.ByCategory(c)
}

var (
	_ viewmodel.MarkerSource   = flatSource{}
	_ viewmodel.CategorySource = (*countingStore)(nil)
)

func TestFilteredMarkers_unionsPartitionedSubLists(t *testing.T) {
	src := &countingStore{Store: seededStore(t)}
	vm := viewmodel.New(src, viewmodel.Options{Logger: quietLogger()})

	vm.ToggleSpots()
	vm.ToggleActivities()
	got := vm.FilteredMarkers()

	assert.Equal(t, []domain.Category{domain.CategoryActivity, domain.CategorySpot}, src.asked)
	assert.Equal(t, []string{
		"activity1", "activity2", "activity3",
		"spot1", "spot2", "spot3", "spot4",
	}, ids(got))
}

func TestFilteredMarkers_flatSourceKeepsCategoryOrder(t *testing.T) {
	seed := catalog.SeedMarkers()
	mixed := make([]domain.Marker, 0, len(seed))
	for i := len(seed) - 1; i >= 0; i-- {
		mixed = append(mixed, seed[i])
	}
	vm := viewmodel.New(flatSource{markers: mixed}, viewmodel.Options{Logger: quietLogger()})

	assert.Len(t, vm.FilteredMarkers(), len(seed), "no filters shows everything")

	vm.TogglePeople()
	vm.ToggleSpots()
	got := vm.FilteredMarkers()

	require.Len(t, got, 7)
	for i, m := range got {
		if i < 3 {
			assert.Equal(t, domain.CategoryPerson, m.Category)
		} else {
			assert.Equal(t, domain.CategorySpot, m.Category)
		}
	}
}

func TestSearchPlaces_pagePastLimitSkipsProvider(t *testing.T) {
	s := &mockSearcher{search: func(context.Context, string, int, int) (domain.PlaceSearchResponse, error) {
		t.Fatal("provider must not be asked for an out-of-range page")
		return domain.PlaceSearchResponse{}, nil
	}}
	vm := newVM(t, viewmodel.Options{Searcher: s})

	res := awaitSearch(t, vm.SearchPlaces(context.Background(), "coffee", 10, 922337203685477581))

	assert.Equal(t, domain.SearchEmpty, res.Status)
	require.NotNil(t, res.Places)
	assert.Empty(t, res.Places)
}
