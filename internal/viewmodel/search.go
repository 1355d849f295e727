package viewmodel

import (
	"context"
	"errors"
	"strings"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// SearchResult is the outcome of one SearchPlaces call.
// Places is never nil; it is empty unless Status is SearchOK.
type SearchResult struct {
	Generation uint64
	Query      domain.SearchQuery
	Places     []domain.Place
	Status     domain.SearchStatus
}

// SearchPlaces looks up places matching keyword. pageSize and pageOffset are
// normalized with domain.NewSearchQuery semantics (non-positive size means
// the default of 10).
//
// The returned channel receives exactly one SearchResult. Provider errors,
// non-success result codes and empty answers all yield an empty list; the
// Status field tells them apart. A blank keyword or a page past
// domain.MaxSearchPageOffset is answered as empty without asking the
// provider. Only the most recently issued search updates
// SearchResults, so a slow earlier request can never overwrite a newer one.
func (vm *FilterViewModel) SearchPlaces(ctx context.Context, keyword string, pageSize, pageOffset int) <-chan SearchResult {
	q := domain.NewSearchQuery(strings.TrimSpace(keyword), &pageSize, &pageOffset)

	vm.mu.Lock()
	vm.searchGen++
	gen := vm.searchGen
	vm.mu.Unlock()

	out := make(chan SearchResult, 1)

	if q.Keyword == "" || !q.InRange() || vm.searcher == nil {
		status := domain.SearchEmpty
		if vm.searcher == nil && q.Keyword != "" && q.InRange() {
			status = domain.SearchFailed
		}
		res := SearchResult{Generation: gen, Query: q, Places: []domain.Place{}, Status: status}
		vm.publishSearch(res)
		out <- res
		close(out)
		return out
	}

	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(ctx, vm.timeout)
		defer cancel()

		res := vm.runSearch(ctx, gen, q)
		vm.publishSearch(res)
		out <- res
	}()
	return out
}

// SearchResults returns the result of the latest search, or an empty
// SearchEmpty result if none has completed.
func (vm *FilterViewModel) SearchResults() SearchResult {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.lastSearch
}

type searchReply struct {
	resp domain.PlaceSearchResponse
	err  error
}

func (vm *FilterViewModel) runSearch(ctx context.Context, gen uint64, q domain.SearchQuery) SearchResult {
	res := SearchResult{Generation: gen, Query: q, Places: []domain.Place{}}

	replies := make(chan searchReply, 1)
	go func() {
		resp, err := vm.searcher.SearchPlacesByKeyword(ctx, q.Keyword, q.PageSize, q.PageOffset)
		replies <- searchReply{resp: resp, err: err}
	}()

	var reply searchReply
	select {
	case reply = <-replies:
	case <-ctx.Done():
		reply = searchReply{err: ctx.Err()}
	}

	switch {
	case reply.err != nil && errors.Is(reply.err, context.DeadlineExceeded):
		vm.log.Warn("place search timed out", "keyword", q.Keyword)
		res.Status = domain.SearchTimeout
	case reply.err != nil:
		vm.log.Warn("place search failed", "keyword", q.Keyword, "error", reply.err)
		res.Status = domain.SearchFailed
	case reply.resp.ResultCode != domain.ResultCodeOK:
		vm.log.Warn("place search rejected", "keyword", q.Keyword, "result_code", reply.resp.ResultCode)
		res.Status = domain.SearchFailed
	case len(reply.resp.Places) == 0:
		res.Status = domain.SearchEmpty
	default:
		res.Places = append(res.Places, reply.resp.Places...)
		res.Status = domain.SearchOK
	}
	return res
}

// publishSearch stores res as the current result set if it belongs to the
// latest search issued.
func (vm *FilterViewModel) publishSearch(res SearchResult) {
	vm.mu.Lock()
	if res.Generation != vm.searchGen {
		vm.mu.Unlock()
		vm.log.Debug("dropping stale search result", "generation", res.Generation, "keyword", res.Query.Keyword)
		return
	}
	vm.lastSearch = res
	vm.mu.Unlock()

	vm.notify(Event{Type: EventSearchResultsChanged, Search: res})
}
