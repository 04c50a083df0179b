package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateTTL bounds how long an authorization round trip may take. States
// older than this are treated as never issued.
const StateTTL = 10 * time.Minute

// OAuthState is the server-side half of the CSRF check. The raw state value
// travels through the provider redirect; only its hash is stored.
type OAuthState struct {
	ID           uuid.UUID
	StateHash    string
	Provider     string
	RedirectPath string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// OAuthLink ties a provider identity to a local user.
type OAuthLink struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Profile is the normalized identity a provider adapter returns after the
// code exchange.
type Profile struct {
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// ProviderAdapter abstracts one OAuth provider. AuthURL must embed the raw
// state; ResolveProfile exchanges the code and fetches the identity.
type ProviderAdapter interface {
	ProviderID() string
	AuthURL(state string) string
	ResolveProfile(ctx context.Context, code string) (*Profile, error)
}

// OAuthStorage is the persistence surface of the OAuth flow. ConsumeState
// must remove and return the record in one atomic step so a replayed state
// fails with ErrStateNotFound.
type OAuthStorage interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	UserHasPassword(ctx context.Context, userID uuid.UUID) (bool, error)

	CreateState(ctx context.Context, state *OAuthState) error
	ConsumeState(ctx context.Context, stateHash string) (*OAuthState, error)
	DeleteExpiredStates(ctx context.Context, before time.Time) (int64, error)

	CreateLink(ctx context.Context, link *OAuthLink) error
	GetLinkByProviderID(ctx context.Context, provider, providerUserID string) (*OAuthLink, error)
	GetLinksByUserID(ctx context.Context, userID uuid.UUID) ([]OAuthLink, error)
	DeleteLink(ctx context.Context, userID uuid.UUID, provider string) error
}
