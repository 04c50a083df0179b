package auth

import (
	"net/http"

	"github.com/coverly/bestauth/core"
	"github.com/coverly/bestauth/pkg/logger"
	"github.com/coverly/bestauth/pkg/session"
)

func (m *Module) handleSignup(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[credentialsRequest](w, r)
	if !ok {
		return
	}

	user, err := m.passwords.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Verification mail is best effort; the account works unverified.
	if m.verification != nil {
		if vr, err := m.verification.Request(r.Context(), user.Email); err == nil {
			m.deliver(r, "verification", func() error {
				return m.mailer.SendVerification(r.Context(), vr.Email, vr.Token)
			})
		}
	}

	sess, err := m.signIn(w, r, user)
	if err != nil {
		m.log.ErrorContext(r.Context(), "failed to issue session after signup",
			logger.UserID(user.ID), logger.Error(err))
		core.WriteError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusCreated, sessionResponse{
		User:      toUserResponse(user),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (m *Module) handleSignin(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[credentialsRequest](w, r)
	if !ok {
		return
	}

	user, err := m.passwords.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sess, err := m.signIn(w, r, user)
	if err != nil {
		core.WriteError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, sessionResponse{
		User:      toUserResponse(user),
		ExpiresAt: sess.ExpiresAt,
	})
}

func (m *Module) handleSignout(w http.ResponseWriter, r *http.Request) {
	raw, err := m.transport.TokenFrom(r)
	if err == nil {
		if err := m.sessions.Revoke(r.Context(), raw); err != nil {
			core.WriteError(w, err)
			return
		}
	}
	m.transport.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleSignoutAll(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	if err := m.sessions.RevokeAll(r.Context(), sess.UserID); err != nil {
		core.WriteError(w, err)
		return
	}
	m.transport.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	user, err := m.users.GetUserByID(r.Context(), sess.UserID)
	if err != nil {
		// Session outlived the account; treat as signed out.
		m.transport.Clear(w)
		core.WriteError(w, core.ErrUnauthenticated)
		return
	}

	resp := meResponse{User: toUserResponse(user)}
	if m.quota != nil {
		if q, err := m.quota.Remaining(r.Context(), user.ID); err == nil {
			resp.Quota = q
		} else {
			m.log.ErrorContext(r.Context(), "failed to read quota",
				logger.UserID(user.ID), logger.Error(err))
		}
	}

	core.WriteJSON(w, http.StatusOK, resp)
}

// deliver sends mail off the critical path and logs failures.
func (m *Module) deliver(r *http.Request, kind string, send func() error) {
	if m.mailer == nil {
		return
	}
	if err := send(); err != nil {
		m.log.ErrorContext(r.Context(), "failed to send email",
			logger.Operation(kind), logger.Error(err))
	}
}
