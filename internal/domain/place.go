package domain

// ResultCodeOK is the provider result code that marks a successful search.
// Any other code is treated as a failed search.
const ResultCodeOK = 1000

// Default search paging, matching what the map screen has always requested.
const (
	DefaultSearchPageSize = 10
	MaxSearchPageSize     = 50
	MaxSearchPageOffset   = 1000
)

// Place is a single search result. Places are transient: each search
// response replaces the previous set wholesale.
type Place struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position returns the place location as a LatLng.
func (p Place) Position() LatLng {
	return LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
}

// PlaceSearchResponse is what a place-search provider hands back.
type PlaceSearchResponse struct {
	Places     []Place
	ResultCode int
}

// SearchStatus explains why a search produced the places it did.
// Callers always receive a list; the status is the only way to tell
// "nothing found" from "something broke".
type SearchStatus string

const (
	SearchOK      SearchStatus = "ok"
	SearchEmpty   SearchStatus = "empty"
	SearchFailed  SearchStatus = "failed"
	SearchTimeout SearchStatus = "timeout"
)

// SearchQuery carries a keyword and the page to fetch.
// PageOffset is a zero-based page index, not a row offset.
type SearchQuery struct {
	Keyword    string
	PageSize   int
	PageOffset int
}

// NewSearchQuery builds a SearchQuery from optional paging values.
// Nil pointers fall back to page size 10 and page 0; the size is capped at 50.
func NewSearchQuery(keyword string, pageSize, pageOffset *int) SearchQuery {
	q := SearchQuery{Keyword: keyword, PageSize: DefaultSearchPageSize}
	if pageSize != nil && *pageSize >= 1 {
		q.PageSize = *pageSize
		if q.PageSize > MaxSearchPageSize {
			q.PageSize = MaxSearchPageSize
		}
	}
	if pageOffset != nil && *pageOffset >= 0 {
		q.PageOffset = *pageOffset
	}
	return q
}

// InRange reports whether the requested page is one a provider may be
// asked for. Pages past MaxSearchPageOffset are answered as empty.
func (q SearchQuery) InRange() bool {
	return q.PageOffset <= MaxSearchPageOffset
}
