package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coverly/bestauth/pkg/cookie"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T, opts ...cookie.Option) *cookie.Manager {
	t.Helper()
	m, err := cookie.New([]string{testSecret}, opts...)
	require.NoError(t, err)
	return m
}

func requestWith(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty secrets", func(t *testing.T) {
		_, err := cookie.New(nil)
		assert.ErrorIs(t, err, cookie.ErrNoSecret)

		_, err = cookie.New([]string{""})
		assert.ErrorIs(t, err, cookie.ErrNoSecret)
	})

	t.Run("rejects short secret", func(t *testing.T) {
		_, err := cookie.New([]string{"short"})
		assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
	})
}

func TestSignedRoundTrip(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	rec := httptest.NewRecorder()
	m.SetSigned(rec, "sid", "token-value")

	got, err := m.GetSigned(requestWith(t, rec), "sid")
	require.NoError(t, err)
	assert.Equal(t, "token-value", got)
}

func TestSignedTamperDetection(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	rec := httptest.NewRecorder()
	m.SetSigned(rec, "sid", "token-value")

	c := rec.Result().Cookies()[0]
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value + "x"})

	_, err := m.GetSigned(r, "sid")
	assert.ErrorIs(t, err, cookie.ErrBadSignature)
}

func TestKeyRotation(t *testing.T) {
	t.Parallel()

	oldSecret := strings.Repeat("a", 32)
	oldMgr, err := cookie.New([]string{oldSecret})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	oldMgr.SetSigned(rec, "sid", "survives-rotation")

	// New manager signs with a fresh key but still verifies the old one.
	rotated, err := cookie.New([]string{testSecret, oldSecret})
	require.NoError(t, err)

	got, err := rotated.GetSigned(requestWith(t, rec), "sid")
	require.NoError(t, err)
	assert.Equal(t, "survives-rotation", got)
}

func TestSessionCookiePolicy(t *testing.T) {
	t.Parallel()

	m := newManager(t, cookie.WithSecure(true))
	rec := httptest.NewRecorder()
	m.SetSession(rec, "sid", "tok", 30*24*time.Hour)

	c := rec.Result().Cookies()[0]
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int((30 * 24 * time.Hour).Seconds()), c.MaxAge)
}

func TestStateCookieClampsMaxAge(t *testing.T) {
	t.Parallel()

	m := newManager(t)

	t.Run("long ttl clamped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.SetState(rec, "oauth_state", "s", time.Hour)
		c := rec.Result().Cookies()[0]
		assert.Equal(t, int(cookie.StateMaxAge.Seconds()), c.MaxAge)
	})

	t.Run("short ttl kept", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.SetState(rec, "oauth_state", "s", 5*time.Minute)
		c := rec.Result().Cookies()[0]
		assert.Equal(t, int((5 * time.Minute).Seconds()), c.MaxAge)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	m := newManager(t)
	rec := httptest.NewRecorder()
	m.Delete(rec, "sid")

	c := rec.Result().Cookies()[0]
	assert.Equal(t, -1, c.MaxAge)
	assert.Empty(t, c.Value)
}
