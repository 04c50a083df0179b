package auth

import (
	"errors"
	"net/http"

	"github.com/coverly/bestauth/core"
	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/usage"
	"github.com/coverly/bestauth/pkg/validator"
)

// writeDomainError maps service errors onto the uniform JSON taxonomy.
// Everything credential-shaped collapses into one generic 401 so the
// response never reveals which check failed; the specific reason is logged
// where the error originated.
func writeDomainError(w http.ResponseWriter, err error) {
	if ve := validator.Extract(err); ve != nil {
		fields := make(map[string][]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field] = append(fields[fe.Field], fe.Message)
		}
		core.WriteValidationError(w, fields)
		return
	}

	switch {
	case errors.Is(err, authsvc.ErrInvalidCredentials),
		errors.Is(err, authsvc.ErrTokenInvalid),
		errors.Is(err, authsvc.ErrTokenExpired),
		errors.Is(err, authsvc.ErrTokenUsed),
		errors.Is(err, authsvc.ErrStateNotFound),
		errors.Is(err, authsvc.ErrStateMismatch),
		errors.Is(err, authsvc.ErrInvalidCode),
		errors.Is(err, authsvc.ErrProviderDenied):
		core.WriteError(w, core.ErrUnauthenticated)

	case errors.Is(err, authsvc.ErrEmailAlreadyExists),
		errors.Is(err, authsvc.ErrProviderEmailInUse),
		errors.Is(err, authsvc.ErrAlreadyVerified):
		core.WriteError(w, core.ErrConflict)

	case errors.Is(err, authsvc.ErrUnknownProvider):
		core.WriteError(w, core.ErrBadRequest.WithMessage("unknown provider"))

	case errors.Is(err, authsvc.ErrLastAuthMethod):
		core.WriteError(w, core.ErrConflict.WithMessage("cannot remove the last sign-in method"))

	case errors.Is(err, authsvc.ErrUnverifiedEmail),
		errors.Is(err, authsvc.ErrNoProviderEmail):
		core.WriteError(w, core.ErrForbidden.WithMessage("provider account has no verified email"))

	case errors.Is(err, authsvc.ErrProviderFailure):
		core.WriteError(w, core.ErrUpstream)

	case errors.Is(err, usage.ErrQuotaExceeded):
		core.WriteError(w, core.ErrQuotaExceeded)

	case errors.Is(err, usage.ErrInvalidAmount):
		core.WriteError(w, core.ErrBadRequest.WithMessage("amount must be positive"))

	default:
		core.WriteError(w, err)
	}
}
