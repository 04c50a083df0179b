package session

import (
	"log/slog"
	"net/http"

	"github.com/coverly/bestauth/core"
	"github.com/coverly/bestauth/pkg/logger"
)

// Middleware resolves the request's session if one is presented and stores
// it in the context. Requests without a valid session pass through
// unauthenticated; use RequireAuth to enforce.
func Middleware(m *Manager, t Transport) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := t.TokenFrom(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			s, err := m.Validate(r.Context(), raw)
			if err != nil {
				if IsInvalid(err) {
					// The distinct reason is for logs only; the client
					// sees nothing until an authenticated route rejects.
					m.log.InfoContext(r.Context(), "session rejected",
						slog.String("reason", err.Error()),
						logger.Component("session"),
					)
					t.Clear(w)
					next.ServeHTTP(w, r)
					return
				}
				m.log.ErrorContext(r.Context(), "session lookup failed", logger.Error(err), logger.Component("session"))
				core.WriteError(w, core.ErrInternal)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireAuth rejects requests that did not resolve to a valid session.
// Every failure mode maps to the same generic 401 body.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			core.WriteError(w, core.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}
