package geoip

import (
	"context"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// Static always reports the same position.
type Static struct {
	At domain.LatLng
}

func (s Static) NewLocationClient() (viewmodel.LocationClient, error) {
	return staticClient{at: s.At}, nil
}

type staticClient struct {
	at domain.LatLng
}

func (c staticClient) Start(ctx context.Context) (domain.LocationFix, error) {
	if err := ctx.Err(); err != nil {
		return domain.LocationFix{}, err
	}
	return domain.LocationFix{Latitude: c.at.Latitude, Longitude: c.at.Longitude}, nil
}

func (staticClient) Close() error { return nil }
