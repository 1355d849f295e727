// Package elastic searches a places index in Elasticsearch.
package elastic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// document is the shape of one indexed place.
type document struct {
	Name     string           `json:"name"`
	Address  string           `json:"address"`
	Location elastic.GeoPoint `json:"location"`
}

// Searcher runs multi_match queries over name and address.
type Searcher struct {
	client *elastic.Client
	index  string
}

// New connects to the cluster at url. Sniffing and health checks are off so
// a single node behind a proxy works.
func New(url, index string, timeout time.Duration) (*Searcher, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
		elastic.SetHttpClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("elastic.New: %w", err)
	}
	return &Searcher{client: client, index: index}, nil
}

// maxResultWindow is the Elasticsearch default index.max_result_window.
// Pages ending past it are rejected by the cluster, so they are answered as
// empty without a request.
const maxResultWindow = 10000

// SearchPlacesByKeyword returns page pageOffset of size pageSize, ranked by
// relevance. Hits whose source cannot be decoded are skipped.
func (s *Searcher) SearchPlacesByKeyword(ctx context.Context, keyword string, pageSize, pageOffset int) (domain.PlaceSearchResponse, error) {
	if pageSize <= 0 || pageOffset < 0 || pageOffset > (maxResultWindow-pageSize)/pageSize {
		return domain.PlaceSearchResponse{Places: []domain.Place{}, ResultCode: domain.ResultCodeOK}, nil
	}
	res, err := s.client.Search().
		Index(s.index).
		Query(elastic.NewMultiMatchQuery(keyword, "name", "address")).
		From(pageOffset * pageSize).
		Size(pageSize).
		Do(ctx)
	if err != nil {
		return domain.PlaceSearchResponse{}, fmt.Errorf("elastic.Searcher.SearchPlacesByKeyword: %w", err)
	}

	places := make([]domain.Place, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		places = append(places, domain.Place{
			ID:        hit.Id,
			Name:      doc.Name,
			Address:   doc.Address,
			Latitude:  doc.Location.Lat,
			Longitude: doc.Location.Lon,
		})
	}
	return domain.PlaceSearchResponse{Places: places, ResultCode: domain.ResultCodeOK}, nil
}
