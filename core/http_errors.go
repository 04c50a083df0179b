// Package core defines the HTTP error taxonomy and the uniform JSON
// response shape shared by every public endpoint.
package core

import "net/http"

// HTTPError is an error that maps directly to an HTTP response. Code is a
// stable machine-readable identifier; Message is safe to show to clients.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string {
	return e.Code
}

// WithMessage returns a copy with a client-safe message attached.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

// The taxonomy every public entry point maps internal errors onto. All
// authentication failures share one generic value so clients cannot tell
// which factor failed.
var (
	ErrBadRequest      = HTTPError{Status: http.StatusBadRequest, Code: "bad_request", Message: "malformed request"}
	ErrValidation      = HTTPError{Status: http.StatusUnprocessableEntity, Code: "validation_error", Message: "invalid input"}
	ErrUnauthenticated = HTTPError{Status: http.StatusUnauthorized, Code: "unauthenticated", Message: "authentication required or invalid credentials"}
	ErrForbidden       = HTTPError{Status: http.StatusForbidden, Code: "forbidden", Message: "insufficient permissions"}
	ErrConflict        = HTTPError{Status: http.StatusConflict, Code: "conflict", Message: "resource already exists"}
	ErrQuotaExceeded   = HTTPError{Status: http.StatusPaymentRequired, Code: "quota_exceeded", Message: "usage limit reached for current plan"}
	ErrTooManyRequests = HTTPError{Status: http.StatusTooManyRequests, Code: "too_many_requests", Message: "rate limit exceeded"}
	ErrUpstream        = HTTPError{Status: http.StatusBadGateway, Code: "upstream_error", Message: "upstream service unavailable"}
	ErrInternal        = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
)
