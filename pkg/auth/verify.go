package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coverly/bestauth/pkg/sanitizer"
)

// VerificationRequest carries the raw verification token to the delivery
// layer.
type VerificationRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// VerificationService handles the email ownership check for accounts that
// registered with a password.
type VerificationService struct {
	storage   MagicLinkStorage
	ephemeral *EphemeralService
}

func NewVerificationService(storage MagicLinkStorage, ephemeral *EphemeralService) *VerificationService {
	return &VerificationService{storage: storage, ephemeral: ephemeral}
}

// Request issues a verification token for the email. It fails with
// ErrUserNotFound for unknown addresses; the handler answers generically
// either way.
func (s *VerificationService) Request(ctx context.Context, email string) (*VerificationRequest, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return nil, ErrAlreadyVerified
	}

	raw, t, err := s.ephemeral.Issue(ctx, PurposeEmailVerify, email)
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	return &VerificationRequest{Email: email, Token: raw, ExpiresAt: t.ExpiresAt}, nil
}

// Confirm consumes a verification token and marks the account verified.
func (s *VerificationService) Confirm(ctx context.Context, rawToken string) (*User, error) {
	t, err := s.ephemeral.Consume(ctx, PurposeEmailVerify, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByEmail(ctx, t.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if !user.IsVerified {
		if err := s.storage.SetUserVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("mark user verified: %w", err)
		}
		user.IsVerified = true
	}

	return user, nil
}
