package auth

import (
	"errors"
	"net/http"

	"github.com/coverly/bestauth/core"
	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/logger"
)

func (m *Module) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[emailRequest](w, r)
	if !ok {
		return
	}

	reset, err := m.passwords.ForgotPassword(r.Context(), req.Email)
	switch {
	case err == nil:
		m.deliver(r, "password-reset", func() error {
			return m.mailer.SendPasswordReset(r.Context(), reset.Email, reset.Token)
		})
	case errors.Is(err, authsvc.ErrUserNotFound):
		// Fall through to the generic body; the response must not say
		// whether the address has an account.
	default:
		core.WriteError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, statusOK)
}

func (m *Module) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[resetConfirmRequest](w, r)
	if !ok {
		return
	}

	user, err := m.passwords.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	m.log.InfoContext(r.Context(), "password reset completed", logger.UserID(user.ID))

	// The reset revoked every session, including the one in this browser.
	m.transport.Clear(w)
	core.WriteJSON(w, http.StatusOK, statusOK)
}

func (m *Module) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		core.WriteError(w, core.ErrBadRequest.WithMessage("missing token"))
		return
	}

	user, err := m.verification.Confirm(r.Context(), token)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, toUserResponse(user))
}
