package core

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorBody is the uniform error payload: {"error": ..., "code": ...}.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`

	// Fields lists per-field validation messages when Code is "validation_error".
	Fields map[string][]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as the uniform error shape. Unrecognized errors
// become an opaque 500; callers log the detail before reaching here.
func WriteError(w http.ResponseWriter, err error) {
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = ErrInternal
	}

	msg := httpErr.Message
	if msg == "" {
		msg = http.StatusText(httpErr.Status)
	}

	WriteJSON(w, httpErr.Status, ErrorBody{Error: msg, Code: httpErr.Code})
}

// WriteValidationError renders field-level validation failures.
func WriteValidationError(w http.ResponseWriter, fields map[string][]string) {
	WriteJSON(w, ErrValidation.Status, ErrorBody{
		Error:  ErrValidation.Message,
		Code:   ErrValidation.Code,
		Fields: fields,
	})
}
