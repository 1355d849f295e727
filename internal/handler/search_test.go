package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/handler"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// echoSearch returns a mock whose Search records its arguments and answers
// with the given status and places.
func echoSearch(status domain.SearchStatus, places []domain.Place, gotKeyword *string, gotSize, gotOffset *int) *mockSessionServicer {
	return &mockSessionServicer{
		search: func(_ context.Context, _ uuid.UUID, keyword string, pageSize, pageOffset int) (viewmodel.SearchResult, error) {
			*gotKeyword, *gotSize, *gotOffset = keyword, pageSize, pageOffset
			q := domain.NewSearchQuery(keyword, &pageSize, &pageOffset)
			return viewmodel.SearchResult{Query: q, Places: places, Status: status}, nil
		},
	}
}

func TestSearchPlaces_bindsQueryParameters(t *testing.T) {
	var keyword string
	var size, offset int
	places := []domain.Place{{ID: "node/1", Name: "西湖", Address: "杭州", Latitude: 30.25, Longitude: 120.14}}
	svc := echoSearch(domain.SearchOK, places, &keyword, &size, &offset)

	path := fmt.Sprintf("/sessions/%s/search?q=%s&page_size=5&page_offset=2", uuid.NewString(), "%E8%A5%BF%E6%B9%96")
	rec := serve(newHTTPHandler(svc), http.MethodGet, path, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "西湖", keyword)
	assert.Equal(t, 5, size)
	assert.Equal(t, 2, offset)

	var body handler.SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.SearchOK, body.Status)
	assert.Equal(t, 5, body.PageSize)
	assert.Equal(t, 2, body.PageOffset)
	require.Len(t, body.Places, 1)
	assert.Equal(t, "node/1", body.Places[0].ID)
}

func TestSearchPlaces_pagingIsOptional(t *testing.T) {
	var keyword string
	var size, offset int
	svc := echoSearch(domain.SearchEmpty, nil, &keyword, &size, &offset)

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/sessions/"+uuid.NewString()+"/search?q=cafe", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, size, "zero lets the view model apply its default")
	assert.Equal(t, 0, offset)

	var body handler.SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.SearchEmpty, body.Status)
	assert.Equal(t, domain.DefaultSearchPageSize, body.PageSize)
	assert.NotNil(t, body.Places, "places must encode as [] rather than null")
	assert.Contains(t, rec.Body.String(), `"places":[]`)
}

func TestSearchPlaces_providerFailureIsStillOK(t *testing.T) {
	var keyword string
	var size, offset int
	svc := echoSearch(domain.SearchFailed, nil, &keyword, &size, &offset)

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/sessions/"+uuid.NewString()+"/search?q=cafe", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body handler.SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.SearchFailed, body.Status)
	assert.Empty(t, body.Places)
}

func TestSearchPlaces_rejectsBadParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing q", ""},
		{"page_size not a number", "?q=cafe&page_size=ten"},
		{"page_offset not a number", "?q=cafe&page_offset=x"},
		{"page_offset past the last page", "?q=cafe&page_offset=1001"},
		{"page_offset that would overflow", "?q=cafe&page_offset=922337203685477581"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSessionServicer{
				search: func(context.Context, uuid.UUID, string, int, int) (viewmodel.SearchResult, error) {
					t.Fatal("service must not be called")
					return viewmodel.SearchResult{}, nil
				},
			}

			rec := serve(newHTTPHandler(svc), http.MethodGet, "/sessions/"+uuid.NewString()+"/search"+tt.query, nil)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "bad_request", decodeError(t, rec).Error.Code)
		})
	}
}

func TestSearchPlaces_unknownSession(t *testing.T) {
	svc := &mockSessionServicer{
		search: func(context.Context, uuid.UUID, string, int, int) (viewmodel.SearchResult, error) {
			return viewmodel.SearchResult{}, fmt.Errorf("service.SessionService.Search: %w", domain.ErrNotFound)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/sessions/"+uuid.NewString()+"/search?q=cafe", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchPlaces_requestDeadlineIs504(t *testing.T) {
	svc := &mockSessionServicer{
		search: func(context.Context, uuid.UUID, string, int, int) (viewmodel.SearchResult, error) {
			return viewmodel.SearchResult{}, fmt.Errorf("service.SessionService.Search: %w", context.DeadlineExceeded)
		},
	}

	rec := serve(newHTTPHandler(svc), http.MethodGet, "/sessions/"+uuid.NewString()+"/search?q=cafe", nil)

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "timeout", decodeError(t, rec).Error.Code)
}
