package auth

import "errors"

// User and credential errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyVerified    = errors.New("email already verified")
)

// Ephemeral token errors.
var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenUsed    = errors.New("token already used")
)

// OAuth errors.
var (
	ErrStateMismatch      = errors.New("oauth state mismatch")
	ErrStateNotFound      = errors.New("oauth state not found or expired")
	ErrProviderDenied     = errors.New("provider denied authorization")
	ErrInvalidCode        = errors.New("invalid authorization code")
	ErrProviderLinked     = errors.New("provider already linked to another account")
	ErrNoProviderLink     = errors.New("no provider link found")
	ErrUnverifiedEmail    = errors.New("email not verified by provider")
	ErrNoProviderEmail    = errors.New("no usable email from provider")
	ErrProviderEmailInUse = errors.New("email from provider already registered")
	ErrProviderFailure    = errors.New("provider communication failed")
)
