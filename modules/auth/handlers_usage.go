package auth

import (
	"errors"
	"net/http"

	"github.com/coverly/bestauth/core"
	"github.com/coverly/bestauth/pkg/session"
	"github.com/coverly/bestauth/pkg/usage"
)

// handleUsageConsume counts generations against the caller's quota. A
// request past the limit answers 402 with the quota attached so clients
// can render the upgrade prompt without a second call.
func (m *Module) handleUsageConsume(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	amount := int64(1)
	if r.ContentLength > 0 {
		req, ok := decode[consumeRequest](w, r)
		if !ok {
			return
		}
		if req.Amount != 0 {
			amount = req.Amount
		}
	}

	q, err := m.quota.Consume(r.Context(), sess.UserID, amount)
	switch {
	case err == nil:
		core.WriteJSON(w, http.StatusOK, q)
	case errors.Is(err, usage.ErrQuotaExceeded):
		core.WriteJSON(w, core.ErrQuotaExceeded.Status, struct {
			Error string       `json:"error"`
			Code  string       `json:"code"`
			Quota *usage.Quota `json:"quota"`
		}{
			Error: core.ErrQuotaExceeded.Message,
			Code:  core.ErrQuotaExceeded.Code,
			Quota: q,
		})
	default:
		writeDomainError(w, err)
	}
}
