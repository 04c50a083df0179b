package auth

import (
	"time"

	"github.com/google/uuid"
)

// Authentication methods recorded on the user at first sign-in.
const (
	MethodPassword    = "password"
	MethodMagicLink   = "magic_link"
	MethodOAuthGoogle = "oauth_google"
	MethodOAuthGithub = "oauth_github"
)

// OAuth provider identifiers.
const (
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// User is the local identity record. PasswordHash lives in its own table;
// OAuth-only users never get one.
type User struct {
	ID         uuid.UUID
	Email      string
	Name       string
	AvatarURL  string
	AuthMethod string
	IsVerified bool
	CreatedAt  time.Time
}
