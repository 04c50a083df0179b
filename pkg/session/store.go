package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists sessions. Implementations return ErrNotFound when no row
// matches; all other failures are wrapped store errors.
type Store interface {
	// Create inserts a new session.
	Create(ctx context.Context, s *Session) error

	// GetByTokenHash returns the session for a token digest, including
	// expired and revoked ones; the manager decides how to classify them.
	GetByTokenHash(ctx context.Context, hash string) (*Session, error)

	// UpdateExpiry moves the session's expiry forward.
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error

	// Revoke marks one session revoked.
	Revoke(ctx context.Context, id uuid.UUID) error

	// RevokeAllForUser marks every active session of the user revoked in a
	// single statement, so no partially revoked state is ever observable.
	// Returns the number of sessions revoked.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// DeleteExpired removes sessions whose expiry or revocation is older
	// than the retention cutoff. Lazy garbage collection; correctness never
	// depends on it running.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
