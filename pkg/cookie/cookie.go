// Package cookie centralizes the attributes applied to every cookie the
// service writes, so session and OAuth-state cookies carry one consistent
// policy regardless of which handler sets them.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
)

const minSecretLength = 32

// StateMaxAge bounds the lifetime of OAuth state cookies. A state that lives
// longer than this widens the CSRF window for no benefit.
const StateMaxAge = 10 * time.Minute

// Manager writes and reads cookies with the service-wide policy applied.
// Values can optionally be signed with HMAC-SHA256; multiple secrets are
// accepted so keys can rotate without invalidating live cookies.
type Manager struct {
	secrets  []string
	defaults Options
}

// New builds a Manager. At least one secret of 32+ characters is required.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d is %d chars, need %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{secrets: secrets, defaults: applyOptions(defaults, opts)}, nil
}

// Set writes a plain cookie with the manager's default policy.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	o := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	})
}

// Get reads a cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete expires the named cookie immediately.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     m.defaults.Path,
		Domain:   m.defaults.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   m.defaults.Secure,
		HttpOnly: m.defaults.HttpOnly,
		SameSite: m.defaults.SameSite,
	})
}

// SetSession writes the session cookie. The Max-Age is derived from the
// session's own TTL so cookie lifetime and credential validity never diverge.
func (m *Manager) SetSession(w http.ResponseWriter, name, value string, ttl time.Duration) {
	m.SetSigned(w, name, value,
		WithMaxAge(int(ttl.Seconds())),
		WithSameSite(http.SameSiteLaxMode),
	)
}

// SetState writes the short-lived OAuth state cookie. SameSite=Lax is the
// strictest policy the browser will still send after the provider's
// cross-site redirect back to us. The TTL is clamped to StateMaxAge.
func (m *Manager) SetState(w http.ResponseWriter, name, value string, ttl time.Duration) {
	if ttl <= 0 || ttl > StateMaxAge {
		ttl = StateMaxAge
	}
	m.SetSigned(w, name, value,
		WithMaxAge(int(ttl.Seconds())),
		WithSameSite(http.SameSiteLaxMode),
	)
}

// SetSigned writes value with an HMAC signature appended.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) {
	m.Set(w, name, m.sign(value), opts...)
}

// GetSigned reads a signed cookie and verifies its signature against every
// configured secret, so rotated-out keys keep existing cookies valid.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	signed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.verify(signed)
}

func (m *Manager) sign(value string) string {
	mac := hmac.New(sha256.New, []byte(m.secrets[0]))
	mac.Write([]byte(value))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(value)) + "|" + sig
}

func (m *Manager) verify(signed string) (string, error) {
	encoded, sig, ok := strings.Cut(signed, "|")
	if !ok {
		return "", ErrBadFormat
	}

	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrBadFormat
	}

	for _, secret := range m.secrets {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(value)
		want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
		if subtle.ConstantTimeCompare([]byte(sig), []byte(want)) == 1 {
			return string(value), nil
		}
	}

	return "", ErrBadSignature
}
