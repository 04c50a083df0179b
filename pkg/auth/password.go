package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/coverly/bestauth/pkg/logger"
	"github.com/coverly/bestauth/pkg/sanitizer"
	"github.com/coverly/bestauth/pkg/validator"
)

// PasswordStorage is what password authentication needs from the credential
// store.
type PasswordStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error
	GetPasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error)
}

// SessionRevoker lets the password service invalidate sessions after a
// reset without depending on the session package.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) error
}

// PasswordResetRequest carries the raw reset token to the delivery layer.
type PasswordResetRequest struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// PasswordService implements registration, credential checks and the
// forgot/reset flow on top of bcrypt.
type PasswordService struct {
	storage   PasswordStorage
	ephemeral *EphemeralService
	revoker   SessionRevoker
	log       *slog.Logger

	bcryptCost int
	strength   validator.PasswordStrengthConfig
}

// PasswordOption configures the service.
type PasswordOption func(*PasswordService)

// WithPasswordLogger sets the logger; the default discards.
func WithPasswordLogger(log *slog.Logger) PasswordOption {
	return func(s *PasswordService) { s.log = log }
}

// WithBcryptCost overrides the bcrypt work factor.
func WithBcryptCost(cost int) PasswordOption {
	return func(s *PasswordService) { s.bcryptCost = cost }
}

// WithPasswordStrength overrides the strength policy for new passwords.
func WithPasswordStrength(cfg validator.PasswordStrengthConfig) PasswordOption {
	return func(s *PasswordService) { s.strength = cfg }
}

// WithSessionRevoker wires "log out everywhere after password reset".
func WithSessionRevoker(r SessionRevoker) PasswordOption {
	return func(s *PasswordService) { s.revoker = r }
}

// NewPasswordService builds the service. ephemeral issues the reset tokens.
func NewPasswordService(storage PasswordStorage, ephemeral *EphemeralService, opts ...PasswordOption) *PasswordService {
	s := &PasswordService{
		storage:    storage,
		ephemeral:  ephemeral,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		bcryptCost: bcrypt.DefaultCost,
		strength:   validator.DefaultPasswordStrength(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with an email and password.
func (s *PasswordService) Register(ctx context.Context, email, password string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	if err := validator.Apply(
		validator.ValidEmail("email", email),
		validator.StrongPassword("password", password, s.strength),
		validator.NotCommonPassword("password", password),
	); err != nil {
		return nil, err
	}

	if _, err := s.storage.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:         uuid.New(),
		Email:      email,
		AuthMethod: MethodPassword,
		CreatedAt:  time.Now(),
	}

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.storage.StorePasswordHash(ctx, user.ID, hash); err != nil {
		// Remove the half-created user so the email is not burned.
		if delErr := s.storage.DeleteUser(ctx, user.ID); delErr != nil {
			s.log.ErrorContext(ctx, "failed to clean up user after password store failure",
				logger.UserID(user.ID),
				logger.Error(delErr),
				logger.Component("password"),
			)
		}
		return nil, fmt.Errorf("store password hash: %w", err)
	}

	return user, nil
}

// Authenticate checks email and password. Every failure returns
// ErrInvalidCredentials so callers cannot distinguish an unknown email from
// a wrong password.
func (s *PasswordService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = sanitizer.NormalizeEmail(email)

	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt comparison anyway so response timing does not
		// reveal whether the email exists.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	hash, err := s.storage.GetPasswordHash(ctx, user.ID)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ChangePassword updates the password of an authenticated user after
// verifying the current one.
func (s *PasswordService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.strength),
		validator.NotCommonPassword("password", newPassword),
	); err != nil {
		return err
	}

	hash, err := s.storage.GetPasswordHash(ctx, userID)
	if err != nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.storage.StorePasswordHash(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	return nil
}

// ForgotPassword issues a reset token for the email. ErrUserNotFound is
// returned to the caller, which must still answer the client with a generic
// success body (anti-enumeration is the handler's contract).
func (s *PasswordService) ForgotPassword(ctx context.Context, email string) (*PasswordResetRequest, error) {
	email = sanitizer.NormalizeEmail(email)

	if _, err := s.storage.GetUserByEmail(ctx, email); err != nil {
		return nil, err
	}

	raw, t, err := s.ephemeral.Issue(ctx, PurposePasswordReset, email)
	if err != nil {
		return nil, fmt.Errorf("issue reset token: %w", err)
	}

	return &PasswordResetRequest{Email: email, Token: raw, ExpiresAt: t.ExpiresAt}, nil
}

// ResetPassword consumes a reset token and installs the new password. All
// of the user's sessions are revoked afterwards; a credential that just
// proved compromised must not keep live sessions.
func (s *PasswordService) ResetPassword(ctx context.Context, rawToken, newPassword string) (*User, error) {
	if err := validator.Apply(
		validator.StrongPassword("password", newPassword, s.strength),
		validator.NotCommonPassword("password", newPassword),
	); err != nil {
		return nil, err
	}

	t, err := s.ephemeral.Consume(ctx, PurposePasswordReset, rawToken)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByEmail(ctx, t.Subject)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.storage.StorePasswordHash(ctx, user.ID, hash); err != nil {
		return nil, fmt.Errorf("update password hash: %w", err)
	}

	if s.revoker != nil {
		if err := s.revoker.RevokeAll(ctx, user.ID); err != nil {
			s.log.ErrorContext(ctx, "failed to revoke sessions after password reset",
				logger.UserID(user.ID),
				logger.Error(err),
				logger.Component("password"),
			)
		}
	}

	return user, nil
}

// dummyHash keeps Authenticate's timing flat when the user or hash is
// missing. It is a valid bcrypt hash of an unguessable throwaway value.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("bestauth-timing-pad"), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return h
}()
