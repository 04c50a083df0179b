package session

import "time"

// Config holds session lifecycle configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"session"`

	// TTL is the fixed session lifetime set at issuance. Sessions are not
	// silently extended; Refresh is an explicit operation.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// Retention is how long expired/revoked rows are kept before the sweep
	// removes them, useful for audit trails.
	Retention time.Duration `env:"SESSION_RETENTION" envDefault:"168h"`

	// CleanupInterval for the expired-session sweep (0 disables it).
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" envDefault:"1h"`
}

// DefaultConfig returns the default session configuration: 30-day sessions,
// weekly retention of dead rows, hourly sweep.
func DefaultConfig() Config {
	return Config{
		CookieName:      "session",
		TTL:             30 * 24 * time.Hour,
		Retention:       7 * 24 * time.Hour,
		CleanupInterval: time.Hour,
	}
}
