package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/sanitizer"
	"github.com/coverly/bestauth/pkg/validator"
)

// MagicLinkStorage is the user store surface the magic link flow needs.
type MagicLinkStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	SetUserVerified(ctx context.Context, userID uuid.UUID) error
}

// MagicLinkRequest carries the raw link token to the delivery layer.
type MagicLinkRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
	IsNewUser bool
}

// MagicLinkService signs users in via single-use emailed tokens. Unknown
// emails are registered on request so the first click both creates the
// account and proves the address.
type MagicLinkService struct {
	storage   MagicLinkStorage
	ephemeral *EphemeralService
}

func NewMagicLinkService(storage MagicLinkStorage, ephemeral *EphemeralService) *MagicLinkService {
	return &MagicLinkService{storage: storage, ephemeral: ephemeral}
}

// Request issues a magic link token for the email, creating the account if
// it does not exist yet.
func (s *MagicLinkService) Request(ctx context.Context, email string) (*MagicLinkRequest, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(validator.ValidEmail("email", email)); err != nil {
		return nil, err
	}

	isNew := false
	if _, err := s.storage.GetUserByEmail(ctx, email); err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("look up user: %w", err)
		}
		user := &User{
			ID:         uuid.New(),
			Email:      email,
			AuthMethod: MethodMagicLink,
			CreatedAt:  time.Now(),
		}
		if err := s.storage.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		isNew = true
	}

	raw, t, err := s.ephemeral.Issue(ctx, PurposeMagicLink, email)
	if err != nil {
		return nil, fmt.Errorf("issue magic link token: %w", err)
	}

	return &MagicLinkRequest{Email: email, Token: raw, ExpiresAt: t.ExpiresAt, IsNewUser: isNew}, nil
}

// Verify consumes a magic link token and returns the signed-in user.
// Completing the link proves control of the mailbox, so the user is marked
// verified as a side effect.
func (s *MagicLinkService) Verify(ctx context.Context, rawToken string) (*User, error) {
	t, err := s.ephemeral.Consume(ctx, PurposeMagicLink, rawToken)
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
