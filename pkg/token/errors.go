package token

import "errors"

var (
	ErrMalformed         = errors.New("token: malformed token")
	ErrSignatureMismatch = errors.New("token: signature mismatch")
)
