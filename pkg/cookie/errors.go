package cookie

import "errors"

var (
	ErrNoSecret       = errors.New("cookie: no signing secret configured")
	ErrSecretTooShort = errors.New("cookie: signing secret too short")
	ErrNotFound       = errors.New("cookie: not found")
	ErrBadFormat      = errors.New("cookie: malformed signed value")
	ErrBadSignature   = errors.New("cookie: signature mismatch")
)
