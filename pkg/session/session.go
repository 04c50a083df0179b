// Package session implements server-tracked authenticated sessions. Tokens
// handed to clients are opaque 256-bit values; only their SHA-256 digest is
// stored, so a leaked database snapshot cannot be replayed as a credential.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Session is one authenticated client context. A user may hold many
// sessions; each session belongs to exactly one user.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	UserAgent string
	IP        string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// IsExpired reports whether the session's fixed expiry has passed.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// IsRevoked reports whether the session was explicitly revoked.
func (s *Session) IsRevoked() bool {
	return s != nil && s.RevokedAt != nil
}

// Metadata carries optional device information captured at issuance.
type Metadata struct {
	UserAgent string
	IP        string
}
