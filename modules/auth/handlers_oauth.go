package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/coverly/bestauth/core"
	"github.com/coverly/bestauth/pkg/cookie"
	"github.com/coverly/bestauth/pkg/logger"
)

func (m *Module) handleOAuthBegin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, rawState, err := m.oauth.Begin(r.Context(), provider, r.URL.Query().Get("redirect"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	m.cookies.SetState(w, StateCookieName, rawState, cookie.StateMaxAge)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleOAuthCallback finishes the round trip. The state from the query
// must match the signed cookie before anything else happens; a provider
// error or a state failure rejects the request without ever contacting the
// provider.
func (m *Module) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	cookieState, err := m.cookies.GetSigned(r, StateCookieName)
	m.cookies.Delete(w, StateCookieName)
	if err != nil {
		m.log.WarnContext(r.Context(), "oauth callback without valid state cookie",
			logger.Provider(provider), logger.Error(err))
		core.WriteError(w, core.ErrUnauthenticated)
		return
	}

	queryState := q.Get("state")
	if queryState == "" || subtle.ConstantTimeCompare([]byte(queryState), []byte(cookieState)) != 1 {
		m.log.WarnContext(r.Context(), "oauth state mismatch", logger.Provider(provider))
		core.WriteError(w, core.ErrUnauthenticated)
		return
	}

	if errParam := q.Get("error"); errParam != "" {
		m.log.InfoContext(r.Context(), "provider denied authorization",
			logger.Provider(provider), logger.Operation(errParam))
		core.WriteError(w, core.ErrUnauthenticated)
		return
	}

	code := q.Get("code")
	if code == "" {
		core.WriteError(w, core.ErrUnauthenticated)
		return
	}

	user, redirectPath, isNew, err := m.oauth.Complete(r.Context(), provider, queryState, code)
	if err != nil {
		m.log.WarnContext(r.Context(), "oauth completion failed",
			logger.Provider(provider), logger.Error(err))
		writeDomainError(w, err)
		return
	}

	if _, err := m.signIn(w, r, user); err != nil {
		core.WriteError(w, err)
		return
	}

	m.log.InfoContext(r.Context(), "oauth sign-in",
		logger.Provider(provider), logger.UserID(user.ID), slog.Bool("new_user", isNew))

	http.Redirect(w, r, redirectPath, http.StatusFound)
}
