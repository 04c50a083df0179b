package config

import "errors"

var (
	ErrNilConfig   = errors.New("config: nil pointer passed to Load")
	ErrParseFailed = errors.New("config: failed to parse environment variables")
)
