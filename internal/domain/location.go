package domain

// LocationFix is the single reading a one-shot location client produces.
// ErrorCode is zero on success.
type LocationFix struct {
	Latitude  float64
	Longitude float64
	ErrorCode int
	Message   string
}

// LocationStatus explains why a location query did or did not yield a position.
type LocationStatus string

const (
	LocationOK               LocationStatus = "ok"
	LocationPermissionDenied LocationStatus = "permission_denied"
	LocationTimeout          LocationStatus = "timeout"
	LocationProviderError    LocationStatus = "provider_error"
)

// Permission names a runtime permission the screen may ask for.
type Permission string

const (
	PermissionFineLocation   Permission = "location.fine"
	PermissionCoarseLocation Permission = "location.coarse"
)

// LocationPermissions is the set requested before showing the user's position.
var LocationPermissions = []Permission{PermissionFineLocation, PermissionCoarseLocation}

// Location client error codes. Zero means the fix is valid.
const (
	LocationErrorNone        = 0
	LocationErrorUnavailable = 4
	LocationErrorPermission  = 12
)
