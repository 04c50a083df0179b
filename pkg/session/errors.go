package session

import "errors"

// Validation failure taxonomy. All of these surface to clients as one
// generic unauthenticated response; the distinct values exist for logs.
var (
	ErrMalformed = errors.New("session: malformed token")
	ErrNotFound  = errors.New("session: not found")
	ErrExpired   = errors.New("session: expired")
	ErrRevoked   = errors.New("session: revoked")

	ErrNoToken = errors.New("session: no token in request")
)

// IsInvalid reports whether err is any of the validation failures, i.e. the
// request must be treated as unauthenticated.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrRevoked) ||
		errors.Is(err, ErrNoToken)
}
