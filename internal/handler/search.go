package handler

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// SearchResponse is the body of GET /sessions/{id}/search. Places is empty
// unless Status is "ok".
type SearchResponse struct {
	Status     domain.SearchStatus `json:"status"`
	Keyword    string              `json:"keyword"`
	PageSize   int                 `json:"page_size"`
	PageOffset int                 `json:"page_offset"`
	Places     []domain.Place      `json:"places"`
}

// SearchPlacesParams are the query parameters of GET /sessions/{id}/search.
type SearchPlacesParams struct {
	Q          string `form:"q"`
	PageSize   *int   `form:"page_size"`
	PageOffset *int   `form:"page_offset"`
}

// SearchPlaces handles GET /sessions/{id}/search?q=&page_size=&page_offset=.
// A provider failure is a 200 with status "failed", not an error response.
func (s *Server) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}

	var params SearchPlacesParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid parameter q: "+err.Error()))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_size", query, &params.PageSize); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid parameter page_size: "+err.Error()))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "page_offset", query, &params.PageOffset); err != nil {
		writeJSON(w, http.StatusBadRequest, requestBody("invalid parameter page_offset: "+err.Error()))
		return
	}

	if params.PageOffset != nil && *params.PageOffset > domain.MaxSearchPageOffset {
		writeJSON(w, http.StatusBadRequest, requestBody(
			fmt.Sprintf("invalid parameter page_offset: must be at most %d", domain.MaxSearchPageOffset)))
		return
	}

	pageSize, pageOffset := 0, 0
	if params.PageSize != nil {
		pageSize = *params.PageSize
	}
	if params.PageOffset != nil {
		pageOffset = *params.PageOffset
	}

	res, err := s.sessions.Search(r.Context(), id, params.Q, pageSize, pageOffset)
	if err != nil {
		s.writeError(w, r, err, sessionNotFound)
		return
	}
	places := res.Places
	if places == nil {
		places = []domain.Place{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Status:     res.Status,
		Keyword:    res.Query.Keyword,
		PageSize:   res.Query.PageSize,
		PageOffset: res.Query.PageOffset,
		Places:     places,
	})
}
