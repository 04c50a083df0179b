// Package auth exposes the authentication JSON API: credentials, sessions,
// single-use token flows, OAuth and usage counters.
package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/clientip"
	"github.com/coverly/bestauth/pkg/cookie"
	"github.com/coverly/bestauth/pkg/email"
	"github.com/coverly/bestauth/pkg/ratelimit"
	"github.com/coverly/bestauth/pkg/session"
	"github.com/coverly/bestauth/pkg/usage"
)

// StateCookieName carries the signed OAuth state between the redirect out
// and the callback.
const StateCookieName = "oauth_state"

// UserReader is the identity lookup the module needs beyond the services.
type UserReader interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*authsvc.User, error)
}

// Module bundles the auth HTTP surface. Every field except the rate
// limiter and mailer is required; without a limiter endpoints run
// unthrottled, without a mailer token links are only logged.
type Module struct {
	log     *slog.Logger
	cookies *cookie.Manager

	sessions  *session.Manager
	transport session.Transport

	users        UserReader
	passwords    *authsvc.PasswordService
	magicLinks   *authsvc.MagicLinkService
	verification *authsvc.VerificationService
	oauth        *authsvc.OAuthService

	quota   *usage.Service
	mailer  *email.Mailer
	limiter ratelimit.Limiter
}

// Deps are the collaborators handed to New.
type Deps struct {
	Cookies      *cookie.Manager
	Sessions     *session.Manager
	Transport    session.Transport
	Users        UserReader
	Passwords    *authsvc.PasswordService
	MagicLinks   *authsvc.MagicLinkService
	Verification *authsvc.VerificationService
	OAuth        *authsvc.OAuthService
	Quota        *usage.Service
	Mailer       *email.Mailer
	Limiter      ratelimit.Limiter
	Logger       *slog.Logger
}

func New(deps Deps) *Module {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Module{
		log:          log,
		cookies:      deps.Cookies,
		sessions:     deps.Sessions,
		transport:    deps.Transport,
		users:        deps.Users,
		passwords:    deps.Passwords,
		magicLinks:   deps.MagicLinks,
		verification: deps.Verification,
		oauth:        deps.OAuth,
		quota:        deps.Quota,
		mailer:       deps.Mailer,
		limiter:      deps.Limiter,
	}
}

// Router mounts every endpoint. Credential-accepting routes sit behind the
// per-IP rate limiter when one is configured.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(clientip.Middleware)
	r.Use(session.Middleware(m.sessions, m.transport))

	throttled := func(h http.HandlerFunc) http.HandlerFunc {
		if m.limiter == nil {
			return h
		}
		wrapped := ratelimit.Middleware(m.limiter, ratelimit.ByClientIP)(h)
		return wrapped.ServeHTTP
	}

	r.Post("/signup", throttled(m.handleSignup))
	r.Post("/signin", throttled(m.handleSignin))

	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Post("/signout", m.handleSignout)
		r.Post("/signout/all", m.handleSignoutAll)
		r.Get("/me", m.handleMe)
		r.Post("/usage/consume", m.handleUsageConsume)
	})

	r.Post("/password-reset", throttled(m.handlePasswordResetRequest))
	r.Post("/password-reset/confirm", throttled(m.handlePasswordResetConfirm))

	r.Post("/magic-link", throttled(m.handleMagicLinkRequest))
	r.HandleFunc("/magic-link/verify", throttled(m.handleMagicLinkVerify))

	r.Get("/verify-email", m.handleVerifyEmail)

	r.Get("/oauth/{provider}", m.handleOAuthBegin)
	r.Get("/oauth/{provider}/callback", throttled(m.handleOAuthCallback))

	return r
}

// signIn issues a session for user and embeds it in the response transport.
func (m *Module) signIn(w http.ResponseWriter, r *http.Request, user *authsvc.User) (*session.Session, error) {
	meta := session.Metadata{
		UserAgent: r.UserAgent(),
		IP:        clientip.FromContext(r.Context()),
	}
	sess, raw, err := m.sessions.Issue(r.Context(), user.ID, meta)
	if err != nil {
		return nil, err
	}
	m.transport.Embed(w, raw, time.Until(sess.ExpiresAt))
	return sess, nil
}
