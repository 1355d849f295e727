// Package overpass searches OpenStreetMap nodes by name through an Overpass
// API endpoint.
package overpass

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

const kmPerDegree = 111.32

// Searcher answers keyword searches with named nodes inside a box around a
// fixed center.
type Searcher struct {
	client   overpass.Client
	center   domain.LatLng
	radiusKm float64
}

// New returns a Searcher that queries endpoint for nodes within radiusKm of
// center.
func New(endpoint string, center domain.LatLng, radiusKm float64, timeout time.Duration) *Searcher {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	return &Searcher{
		client:   overpass.NewWithSettings(endpoint, 2, httpClient),
		center:   center,
		radiusKm: radiusKm,
	}
}

// SearchPlacesByKeyword matches keyword case-insensitively against node
// names. Overpass has no paging, so results are ordered by node id and the
// requested page is cut out locally.
func (s *Searcher) SearchPlacesByKeyword(ctx context.Context, keyword string, pageSize, pageOffset int) (domain.PlaceSearchResponse, error) {
	q := buildQuery(keyword, s.bbox())

	type reply struct {
		res overpass.Result
		err error
	}
	replies := make(chan reply, 1)
	go func() {
		res, err := s.client.Query(q)
		replies <- reply{res: res, err: err}
	}()

	var r reply
	select {
	case r = <-replies:
	case <-ctx.Done():
		return domain.PlaceSearchResponse{}, fmt.Errorf("overpass.Searcher.SearchPlacesByKeyword: %w", ctx.Err())
	}
	if r.err != nil {
		return domain.PlaceSearchResponse{}, fmt.Errorf("overpass.Searcher.SearchPlacesByKeyword: %w", r.err)
	}

	places := toPlaces(r.res)
	return domain.PlaceSearchResponse{
		Places:     page(places, pageSize, pageOffset),
		ResultCode: domain.ResultCodeOK,
	}, nil
}

// bbox is south,west,north,east in Overpass order.
func (s *Searcher) bbox() string {
	dLat := s.radiusKm / kmPerDegree
	dLon := s.radiusKm / (kmPerDegree * math.Cos(s.center.Latitude*math.Pi/180))
	return fmt.Sprintf("%f,%f,%f,%f",
		s.center.Latitude-dLat, s.center.Longitude-dLon,
		s.center.Latitude+dLat, s.center.Longitude+dLon)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// buildQuery matches keyword literally: regex metacharacters are quoted
// before the string is escaped for the Overpass QL literal.
func buildQuery(keyword, bbox string) string {
	return fmt.Sprintf(`[out:json][timeout:25];
node["name"~"%s",i](%s);
out body;`, quoteEscaper.Replace(regexp.QuoteMeta(keyword)), bbox)
}

func toPlaces(res overpass.Result) []domain.Place {
	ids := make([]int64, 0, len(res.Nodes))
	for id := range res.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	places := make([]domain.Place, 0, len(ids))
	for _, id := range ids {
		n := res.Nodes[id]
		places = append(places, domain.Place{
			ID:        "node/" + strconv.FormatInt(id, 10),
			Name:      n.Tags["name"],
			Address:   address(n.Tags),
			Latitude:  n.Lat,
			Longitude: n.Lon,
		})
	}
	return places
}

func address(tags map[string]string) string {
	if full := tags["addr:full"]; full != "" {
		return full
	}
	street := strings.TrimSpace(tags["addr:street"] + " " + tags["addr:housenumber"])
	parts := make([]string, 0, 2)
	for _, p := range []string{street, tags["addr:city"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// page cuts out page offset of the given size. offset is checked against
// len/size before multiplying so a huge offset cannot overflow.
func page(places []domain.Place, size, offset int) []domain.Place {
	if size <= 0 || offset < 0 || offset > len(places)/size {
		return []domain.Place{}
	}
	start := offset * size
	if start >= len(places) {
		return []domain.Place{}
	}
	end := min(start+size, len(places))
	return places[start:end]
}
