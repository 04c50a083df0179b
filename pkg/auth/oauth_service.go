package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/sanitizer"
	"github.com/coverly/bestauth/pkg/token"
)

// ErrUnknownProvider is returned when a request names a provider no adapter
// was registered for.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// ErrLastAuthMethod blocks removing the only way a user can sign in.
var ErrLastAuthMethod = errors.New("cannot remove the last sign-in method")

// OAuthService runs the authorization code flow against registered provider
// adapters. The raw state value is returned from Begin so the transport can
// double-submit it in a signed cookie; Complete checks only the server-side
// record, the cookie comparison is the handler's job.
type OAuthService struct {
	storage  OAuthStorage
	adapters map[string]ProviderAdapter
	now      func() time.Time
}

// OAuthOption configures the service.
type OAuthOption func(*OAuthService)

// WithOAuthClock overrides the time source for tests.
func WithOAuthClock(now func() time.Time) OAuthOption {
	return func(s *OAuthService) { s.now = now }
}

// NewOAuthService builds the service with the given provider adapters.
func NewOAuthService(storage OAuthStorage, adapters []ProviderAdapter, opts ...OAuthOption) *OAuthService {
	s := &OAuthService{
		storage:  storage,
		adapters: make(map[string]ProviderAdapter, len(adapters)),
		now:      time.Now,
	}
	for _, a := range adapters {
		s.adapters[a.ProviderID()] = a
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Providers lists the registered provider identifiers.
func (s *OAuthService) Providers() []string {
	ids := make([]string, 0, len(s.adapters))
	for id := range s.adapters {
		ids = append(ids, id)
	}
	return ids
}

// Begin creates a state record and returns the provider authorization URL
// together with the raw state for the transport cookie.
func (s *OAuthService) Begin(ctx context.Context, provider, redirectPath string) (authURL, rawState string, err error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return "", "", ErrUnknownProvider
	}

	// Only same-site relative paths survive into the post-login redirect.
	if redirectPath == "" || !strings.HasPrefix(redirectPath, "/") || strings.HasPrefix(redirectPath, "//") {
		redirectPath = "/"
	}

	rawState, err = token.NewOpaque()
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}

	now := s.now()
	state := &OAuthState{
		ID:           uuid.New(),
		StateHash:    token.Hash(rawState),
		Provider:     provider,
		RedirectPath: redirectPath,
		CreatedAt:    now,
		ExpiresAt:    now.Add(StateTTL),
	}
	if err := s.storage.CreateState(ctx, state); err != nil {
		return "", "", fmt.Errorf("store state: %w", err)
	}

	return adapter.AuthURL(rawState), rawState, nil
}

// Complete consumes the state, exchanges the code and signs the user in,
// creating the account and provider link as needed. The state must pass
// before any call leaves for the provider. isNew reports whether the
// account was created by this call.
func (s *OAuthService) Complete(ctx context.Context, provider, rawState, code string) (user *User, redirectPath string, isNew bool, err error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, "", false, ErrUnknownProvider
	}

	state, err := s.storage.ConsumeState(ctx, token.Hash(rawState))
	if err != nil {
		return nil, "", false, ErrStateNotFound
	}
	if state.Provider != provider {
		return nil, "", false, ErrStateMismatch
	}
	if s.now().After(state.ExpiresAt) {
		return nil, "", false, ErrStateNotFound
	}

	profile, err := adapter.ResolveProfile(ctx, code)
	if err != nil {
		return nil, "", false, err
	}
	if profile.Email == "" {
		return nil, "", false, ErrNoProviderEmail
	}
	if !profile.EmailVerified {
		return nil, "", false, ErrUnverifiedEmail
	}
	email := sanitizer.NormalizeEmail(profile.Email)

	// Returning user with this provider identity already linked.
	if link, err := s.storage.GetLinkByProviderID(ctx, provider, profile.ProviderUserID); err == nil {
		u, err := s.storage.GetUserByID(ctx, link.UserID)
		if err != nil {
			return nil, "", false, fmt.Errorf("load linked user: %w", err)
		}
		return u, state.RedirectPath, false, nil
	} else if !errors.Is(err, ErrNoProviderLink) {
		return nil, "", false, fmt.Errorf("look up provider link: %w", err)
	}

	existing, err := s.storage.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Auto-link only onto accounts whose email ownership is already
		// proven. Linking onto an unverified password account would hand
		// it to whoever controls the provider identity.
		if !existing.IsVerified {
			return nil, "", false, ErrProviderEmailInUse
		}
		user = existing
	case errors.Is(err, ErrUserNotFound):
		user = &User{
			ID:         uuid.New(),
			Email:      email,
			Name:       profile.Name,
			AvatarURL:  profile.AvatarURL,
			AuthMethod: "oauth_" + provider,
			IsVerified: true,
			CreatedAt:  s.now(),
		}
		if err := s.storage.CreateUser(ctx, user); err != nil {
			return nil, "", false, fmt.Errorf("create user: %w", err)
		}
		isNew = true
	default:
		return nil, "", false, fmt.Errorf("look up user: %w", err)
	}

	link := &OAuthLink{
		ID:             uuid.New(),
		UserID:         user.ID,
		Provider:       provider,
		ProviderUserID: profile.ProviderUserID,
		CreatedAt:      s.now(),
	}
	if err := s.storage.CreateLink(ctx, link); err != nil {
		return nil, "", false, fmt.Errorf("create provider link: %w", err)
	}

	return user, state.RedirectPath, isNew, nil
}

// Unlink removes a provider link, refusing when it is the user's only way
// back in.
func (s *OAuthService) Unlink(ctx context.Context, userID uuid.UUID, provider string) error {
	links, err := s.storage.GetLinksByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("list provider links: %w", err)
	}

	found := false
	for _, l := range links {
		if l.Provider == provider {
			found = true
			break
		}
	}
	if !found {
		return ErrNoProviderLink
	}

	if len(links) == 1 {
		hasPassword, err := s.storage.UserHasPassword(ctx, userID)
		if err != nil {
			return fmt.Errorf("check password: %w", err)
		}
		if !hasPassword {
			return ErrLastAuthMethod
		}
	}

	return s.storage.DeleteLink(ctx, userID, provider)
}

// CleanupStates deletes expired state records.
func (s *OAuthService) CleanupStates(ctx context.Context) (int64, error) {
	return s.storage.DeleteExpiredStates(ctx, s.now())
}
