package domain

import "errors"

// ErrNotFound is returned when the requested resource (e.g. a session) does
// not exist. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails validation (e.g. an unknown
// category name). Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNotInitialized is returned when the marker catalog could not be loaded.
// Handlers should map this to HTTP 503.
var ErrNotInitialized = errors.New("catalog not initialized")

// ErrPermissionDenied is returned when an operation needs a runtime permission
// the session has not been granted. Handlers should map this to HTTP 403.
var ErrPermissionDenied = errors.New("permission denied")
