package viewmodel

import (
	"context"
	"errors"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// LocationResult is the outcome of one CurrentLocation call.
// Location is nil unless Status is LocationOK.
type LocationResult struct {
	Location *domain.LatLng
	Status   domain.LocationStatus
}

// CurrentLocation asks the locator for a single fix. The returned channel
// receives exactly one LocationResult.
//
// The location client is closed exactly once, right after it delivers its
// fix. If no fix arrives before the timeout the result is LocationTimeout.
func (vm *FilterViewModel) CurrentLocation(ctx context.Context) <-chan LocationResult {
	out := make(chan LocationResult, 1)
	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(ctx, vm.timeout)
		defer cancel()
		out <- vm.locate(ctx)
	}()
	return out
}

type fixReply struct {
	fix domain.LocationFix
	err error
}

func (vm *FilterViewModel) locate(ctx context.Context) LocationResult {
	if vm.locator == nil {
		return LocationResult{Status: domain.LocationProviderError}
	}

	client, err := vm.locator.NewLocationClient()
	if err != nil {
		vm.log.Warn("location client unavailable", "error", err)
		return LocationResult{Status: statusForLocationError(err)}
	}

	replies := make(chan fixReply, 1)
	go func() {
		fix, err := client.Start(ctx)
		if cerr := client.Close(); cerr != nil {
			vm.log.Warn("location client close failed", "error", cerr)
		}
		replies <- fixReply{fix: fix, err: err}
	}()

	var reply fixReply
	select {
	case reply = <-replies:
	case <-ctx.Done():
		reply = fixReply{err: ctx.Err()}
	}

	if reply.err != nil {
		vm.log.Warn("location request failed", "error", reply.err)
		return LocationResult{Status: statusForLocationError(reply.err)}
	}
	switch reply.fix.ErrorCode {
	case domain.LocationErrorNone:
		return LocationResult{
			Location: &domain.LatLng{Latitude: reply.fix.Latitude, Longitude: reply.fix.Longitude},
			Status:   domain.LocationOK,
		}
	case domain.LocationErrorPermission:
		return LocationResult{Status: domain.LocationPermissionDenied}
	default:
		vm.log.Warn("location provider error", "error_code", reply.fix.ErrorCode, "message", reply.fix.Message)
		return LocationResult{Status: domain.LocationProviderError}
	}
}

func statusForLocationError(err error) domain.LocationStatus {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.LocationTimeout
	case errors.Is(err, domain.ErrPermissionDenied):
		return domain.LocationPermissionDenied
	default:
		return domain.LocationProviderError
	}
}
