package auth

import (
	"net/http"

	"github.com/coverly/bestauth/core"
)

func (m *Module) handleMagicLinkRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[emailRequest](w, r)
	if !ok {
		return
	}

	link, err := m.magicLinks.Request(r.Context(), req.Email)
	if err != nil {
		// Validation feedback is fine; anything else stays generic since
		// the magic link flow auto-registers and has no "unknown email".
		writeDomainError(w, err)
		return
	}

	m.deliver(r, "magic-link", func() error {
		return m.mailer.SendMagicLink(r.Context(), link.Email, link.Token)
	})

	core.WriteJSON(w, http.StatusOK, statusOK)
}

// handleMagicLinkVerify accepts the token from the emailed link (GET query)
// or from a JSON body (POST), signs the user in and sets the session cookie.
func (m *Module) handleMagicLinkVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" && r.Method == http.MethodPost {
		if req, ok := decode[tokenRequest](w, r); ok {
			token = req.Token
		} else {
			return
		}
	}
	if token == "" {
		core.WriteError(w, core.ErrBadRequest.WithMessage("missing token"))
		return
	}

	user, err := m.magicLinks.Verify(r.Context(), token)
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
