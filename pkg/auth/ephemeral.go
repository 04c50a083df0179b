package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/token"
)

// Purpose tags an ephemeral token with the single action it authorizes.
type Purpose string

const (
	PurposePasswordReset Purpose = "password_reset"
	PurposeEmailVerify   Purpose = "email_verify"
	PurposeMagicLink     Purpose = "magic_link"
)

// TTL returns the lifetime appropriate to the purpose: verification links
// live a day, reset links an hour, passwordless login links 15 minutes.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeEmailVerify:
		return 24 * time.Hour
	case PurposePasswordReset:
		return time.Hour
	case PurposeMagicLink:
		return 15 * time.Minute
	default:
		return 15 * time.Minute
	}
}

// EphemeralToken is a single-use, time-limited secret. Only the digest of
// the raw value is persisted.
type EphemeralToken struct {
	ID        uuid.UUID
	TokenHash string
	Purpose   Purpose
	Subject   string // normalized email the token was issued for
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}

// EphemeralStorage persists single-use tokens.
type EphemeralStorage interface {
	CreateToken(ctx context.Context, t *EphemeralToken) error

	// ConsumeToken atomically marks the token used and returns it. It must
	// be a single conditional update (used only if not yet used) so two
	// concurrent consumers cannot both succeed. Returns ErrTokenInvalid
	// when no such token exists and ErrTokenUsed when it was already
	// consumed.
	ConsumeToken(ctx context.Context, tokenHash string, purpose Purpose) (*EphemeralToken, error)

	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// EphemeralService issues and consumes single-use tokens.
type EphemeralService struct {
	storage EphemeralStorage
	now     func() time.Time
}

// EphemeralOption configures the service.
type EphemeralOption func(*EphemeralService)

// WithEphemeralClock overrides the time source, for expiry tests.
func WithEphemeralClock(now func() time.Time) EphemeralOption {
	return func(s *EphemeralService) { s.now = now }
}

// NewEphemeralService builds the service over the given storage.
func NewEphemeralService(storage EphemeralStorage, opts ...EphemeralOption) *EphemeralService {
	s := &EphemeralService{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a token for subject and returns the raw value exactly once,
// to be embedded in an emailed URL. The store only ever sees the digest.
func (s *EphemeralService) Issue(ctx context.Context, purpose Purpose, subject string) (string, *EphemeralToken, error) {
	raw, err := token.NewOpaque()
	if err != nil {
		return "", nil, fmt.Errorf("generate ephemeral token: %w", err)
	}

	now := s.now()
	t := &EphemeralToken{
		ID:        uuid.New(),
		TokenHash: token.Hash(raw),
		Purpose:   purpose,
		Subject:   subject,
		CreatedAt: now,
		ExpiresAt: now.Add(purpose.TTL()),
	}

	if err := s.storage.CreateToken(ctx, t); err != nil {
		return "", nil, fmt.Errorf("store ephemeral token: %w", err)
	}

	return raw, t, nil
}

// Consume redeems a raw token for the given purpose. Exactly one of two
// concurrent calls with the same token succeeds; the loser sees
// ErrTokenUsed. Expired tokens are rejected even though the row may still
// exist (garbage collection is lazy).
func (s *EphemeralService) Consume(ctx context.Context, purpose Purpose, raw string) (*EphemeralToken, error) {
	if raw == "" {
		return nil, ErrTokenInvalid
	}

	t, err := s.storage.ConsumeToken(ctx, token.Hash(raw), purpose)
	if err != nil {
		if errors.Is(err, ErrTokenInvalid) || errors.Is(err, ErrTokenUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("consume ephemeral token: %w", err)
	}

	if s.now().After(t.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return t, nil
}
