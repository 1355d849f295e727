package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ECHOzdjd/iSpot/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// notFoundBody returns an ErrorResponse for a missing resource.
func notFoundBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "not_found", Message: message}}
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "validation_error", Message: unwrapMessage(err, domain.ErrValidation)}}
}

// requestBody returns an ErrorResponse for a request rejected before it
// reached the service layer (malformed path, query or body).
func requestBody(message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: "bad_request", Message: message}}
}

// writeError maps err onto a status code and error body. notFound is the
// message used for domain.ErrNotFound.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: ErrorDetail{
			Code: "permission_denied", Message: "location permission has not been granted",
		}})
	case errors.Is(err, domain.ErrNotInitialized):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: ErrorDetail{
			Code: "unavailable", Message: "marker catalog is not available",
		}})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: ErrorDetail{
			Code: "timeout", Message: "request timed out",
		}})
	default:
		s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Code: "internal_error", Message: "internal server error",
		}})
	}
}

// unwrapMessage extracts the human-readable part from an error wrapping sentinel.
// e.g. "service.SessionService.Toggle: validation error: unknown category" → "unknown category"
// and "permission.Issuer.Request: unknown permission \"x\": validation error" → "unknown permission \"x\"".
func unwrapMessage(err, sentinel error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	s := sentinel.Error()
	if i := strings.Index(msg, s+": "); i >= 0 {
		return msg[i+len(s)+2:]
	}
	msg = strings.TrimSuffix(msg, ": "+s)
	// Drop leading "pkg.Type.Method: " qualifiers.
	for {
		i := strings.Index(msg, ": ")
		if i < 0 || !strings.Contains(msg[:i], ".") || strings.ContainsAny(msg[:i], " \"") {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
