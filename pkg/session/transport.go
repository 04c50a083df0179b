package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coverly/bestauth/pkg/cookie"
)

// Transport extracts the session token from a request and embeds it into a
// response.
type Transport interface {
	TokenFrom(r *http.Request) (string, error)
	Embed(w http.ResponseWriter, raw string, ttl time.Duration)
	Clear(w http.ResponseWriter)
}

// CookieTransport carries the token in a signed cookie written with the
// session cookie policy.
type CookieTransport struct {
	cookies *cookie.Manager
	name    string
}

// NewCookieTransport builds a cookie transport using the given policy manager.
func NewCookieTransport(cookies *cookie.Manager, name string) *CookieTransport {
	return &CookieTransport{cookies: cookies, name: name}
}

func (t *CookieTransport) TokenFrom(r *http.Request) (string, error) {
	raw, err := t.cookies.GetSigned(r, t.name)
	if err != nil {
		if errors.Is(err, cookie.ErrNotFound) {
			return "", ErrNoToken
		}
		// Bad signature or mangled value: treat as malformed credential.
		return "", ErrMalformed
	}
	return raw, nil
}

func (t *CookieTransport) Embed(w http.ResponseWriter, raw string, ttl time.Duration) {
	t.cookies.SetSession(w, t.name, raw, ttl)
}

func (t *CookieTransport) Clear(w http.ResponseWriter) {
	t.cookies.Delete(w, t.name)
}

// HeaderTransport reads a bearer token from the Authorization header. It
// never writes; API clients hold the token themselves.
type HeaderTransport struct{}

func (HeaderTransport) TokenFrom(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", ErrNoToken
	}
	scheme, value, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || value == "" {
		return "", ErrMalformed
	}
	return value, nil
}

func (HeaderTransport) Embed(http.ResponseWriter, string, time.Duration) {}

func (HeaderTransport) Clear(http.ResponseWriter) {}

// CompositeTransport tries each transport in order for reads and uses the
// first for writes. Typical setup: bearer header first, cookie fallback.
type CompositeTransport struct {
	transports []Transport
}

// NewCompositeTransport combines transports; at least one is required.
func NewCompositeTransport(transports ...Transport) *CompositeTransport {
	if len(transports) == 0 {
		panic("session: composite transport needs at least one transport")
	}
	return &CompositeTransport{transports: transports}
}

func (t *CompositeTransport) TokenFrom(r *http.Request) (string, error) {
	lastErr := error(ErrNoToken)
	for _, tr := range t.transports {
		raw, err := tr.TokenFrom(r)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrNoToken) {
			lastErr = err
		}
	}
	return "", lastErr
}

func (t *CompositeTransport) Embed(w http.ResponseWriter, raw string, ttl time.Duration) {
	for _, tr := range t.transports {
		tr.Embed(w, raw, ttl)
	}
}

func (t *CompositeTransport) Clear(w http.ResponseWriter) {
	for _, tr := range t.transports {
		tr.Clear(w)
	}
}
