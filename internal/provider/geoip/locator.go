// Package geoip locates the caller through an HTTP IP-geolocation API that
// answers with {"status","lat","lon","message"}, and provides a fixed-position
// locator for development.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ECHOzdjd/iSpot/internal/domain"
	"github.com/ECHOzdjd/iSpot/internal/viewmodel"
)

// ErrClosed is returned by Start on a client that was already closed.
var ErrClosed = errors.New("location client closed")

const statusSuccess = "success"

type lookupResponse struct {
	Status  string  `json:"status"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Message string  `json:"message"`
}

// Locator opens one-shot clients against an HTTP endpoint.
type Locator struct {
	endpoint string
	http     *http.Client
}

// New returns a Locator for endpoint.
func New(endpoint string, timeout time.Duration) *Locator {
	return &Locator{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

// NewLocationClient implements viewmodel.Locator.
func (l *Locator) NewLocationClient() (viewmodel.LocationClient, error) {
	return &client{locator: l}, nil
}

type client struct {
	locator *Locator

	mu     sync.Mutex
	closed bool
}

// Start performs a single lookup. A lookup the API rejects yields a fix with
// ErrorCode LocationErrorUnavailable rather than an error.
func (c *client) Start(ctx context.Context) (domain.LocationFix, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return domain.LocationFix{}, ErrClosed
	}

	var out lookupResponse
	if err := c.locator.getJSON(ctx, &out); err != nil {
		return domain.LocationFix{}, fmt.Errorf("geoip.client.Start: %w", err)
	}
	if out.Status != statusSuccess {
		return domain.LocationFix{ErrorCode: domain.LocationErrorUnavailable, Message: out.Message}, nil
	}
	return domain.LocationFix{Latitude: out.Lat, Longitude: out.Lon}, nil
}

func (c *client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (l *Locator) getJSON(ctx context.Context, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		content, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(content))
		if readErr != nil || msg == "" {
			return fmt.Errorf("request failed with status %s", resp.Status)
		}
		return fmt.Errorf("request failed with status %s: %s", resp.Status, msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
