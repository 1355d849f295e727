package geoip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/provider/geoip"
)

func serve(t *testing.T, status int, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestLocator_success(t *testing.T) {
	url := serve(t, http.StatusOK, `{"status":"success","lat":30.29,"lon":120.16}`)
	c, err := geoip.New(url, time.Second).NewLocationClient()
	require.NoError(t, err)

	fix, err := c.Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.LocationErrorNone, fix.ErrorCode)
	assert.Equal(t, 30.29, fix.Latitude)
	assert.Equal(t, 120.16, fix.Longitude)
	assert.NoError(t, c.Close())
}

func TestLocator_failStatusIsErrorCode(t *testing.T) {
	url := serve(t, http.StatusOK, `{"status":"fail","message":"private range"}`)
	c, _ := geoip.New(url, time.Second).NewLocationClient()

	fix, err := c.Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.LocationErrorUnavailable, fix.ErrorCode)
	assert.Equal(t, "private range", fix.Message)
}

func TestLocator_non2xx(t *testing.T) {
	url := serve(t, http.StatusBadGateway, "upstream down")
	c, _ := geoip.New(url, time.Second).NewLocationClient()

	_, err := c.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestLocator_startAfterClose(t *testing.T) {
	url := serve(t, http.StatusOK, `{"status":"success"}`)
	c, _ := geoip.New(url, time.Second).NewLocationClient()
	require.NoError(t, c.Close())

	_, err := c.Start(context.Background())

	assert.ErrorIs(t, err, geoip.ErrClosed)
}

func TestStatic(t *testing.T) {
	at := domain.LatLng{Latitude: 1, Longitude: 2}
	c, err := geoip.Static{At: at}.NewLocationClient()
	require.NoError(t, err)

	fix, err := c.Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1.0, fix.Latitude)
	assert.Equal(t, 2.0, fix.Longitude)
}
