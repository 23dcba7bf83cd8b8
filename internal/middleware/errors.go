package middleware

import (
	"encoding/json"
	"net/http"

	apierrors "mediamerge/internal/errors"
)

// ProblemFromStatus builds an RFC 7807 problem for responses produced by
// middleware, before any handler or service error exists
func ProblemFromStatus(r *http.Request, status int, detail string) *apierrors.ProblemDetails {
	var problemType string

	switch status {
	case http.StatusBadRequest:
		problemType = apierrors.TypeValidation
	case http.StatusNotFound:
		problemType = apierrors.TypeNotFound
	case http.StatusRequestEntityTooLarge:
		problemType = apierrors.TypePayloadTooLarge
	case http.StatusTooManyRequests:
		problemType = apierrors.TypeRateLimit
	case http.StatusServiceUnavailable:
		problemType = apierrors.TypeServiceDown
	case http.StatusGatewayTimeout:
		problemType = apierrors.TypeTimeout
	default:
		problemType = apierrors.TypeInternal
	}

	return apierrors.NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path).
		WithExtension("trace_id", GetRequestID(r.Context()))
}

// writeProblem renders a problem document for status
func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemFromStatus(r, status, detail))
}
