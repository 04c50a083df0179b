package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/coverly/bestauth/core"
	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/usage"
)

// maxBodyBytes bounds request bodies; auth payloads are tiny.
const maxBodyBytes = 1 << 16

func decode[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		core.WriteError(w, core.ErrBadRequest.WithMessage("malformed JSON body"))
		return req, false
	}
	return req, true
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type consumeRequest struct {
	Amount int64 `json:"amount"`
}

// userResponse is the public projection of a user.
type userResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	AvatarURL  string    `json:"avatar_url,omitempty"`
	AuthMethod string    `json:"auth_method"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func toUserResponse(u *authsvc.User) userResponse {
	return userResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		AvatarURL:  u.AvatarURL,
		AuthMethod: u.AuthMethod,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type meResponse struct {
	User  userResponse `json:"user"`
	Quota *usage.Quota `json:"quota,omitempty"`
}

// statusOK is the deliberately uninformative body for flows where a
// detailed answer would confirm whether an account exists.
var statusOK = map[string]string{"status": "ok"}
