package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authmod "github.com/coverly/bestauth/modules/auth"
	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/cookie"
	"github.com/coverly/bestauth/pkg/email"
	"github.com/coverly/bestauth/pkg/session"
	"github.com/coverly/bestauth/pkg/usage"
)

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	store  *fakeStore
	mails  *captureSender
	oauth  *fakeOAuth
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	mails := &captureSender{}
	oauthAdapter := &fakeOAuth{
		id: authsvc.ProviderGoogle,
		profile: authsvc.Profile{
			ProviderUserID: "g-12345",
			Email:          "oauth@example.com",
			EmailVerified:  true,
			Name:           "OAuth User",
		},
	}

	cookies, err := cookie.New(
		[]string{"0123456789abcdef0123456789abcdef"},
		cookie.WithSecure(false),
	)
	require.NoError(t, err)

	sessions := session.NewManager(session.NewMemoryStore(), session.DefaultConfig())
	transport := session.NewCookieTransport(cookies, "session")

	ephemeral := authsvc.NewEphemeralService(store)
	passwords := authsvc.NewPasswordService(store, ephemeral,
		authsvc.WithBcryptCost(bcrypt.MinCost),
		authsvc.WithSessionRevoker(sessions),
	)
	magic := authsvc.NewMagicLinkService(store, ephemeral)
	verification := authsvc.NewVerificationService(store, ephemeral)
	oauthSvc := authsvc.NewOAuthService(store, []authsvc.ProviderAdapter{oauthAdapter})

	mod := authmod.New(authmod.Deps{
		Cookies:      cookies,
		Sessions:     sessions,
		Transport:    transport,
		Users:        store,
		Passwords:    passwords,
		MagicLinks:   magic,
		Verification: verification,
		OAuth:        oauthSvc,
		Quota:        usage.NewService(usage.NewMemoryStore()),
		Mailer:       email.NewMailer(mails, "https://coverly.test", "Coverly"),
	})

	srv := httptest.NewServer(mod.Router())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{srv: srv, client: client, store: store, mails: mails, oauth: oauthAdapter}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

var tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_\-%]+)`)

func (e *testEnv) lastMailToken(t *testing.T) string {
	t.Helper()
	mail, ok := e.mails.last()
	require.True(t, ok, "expected an email to have been sent")
	m := tokenRe.FindStringSubmatch(mail.BodyHTML)
	require.Len(t, m, 2, "email must carry a token link")
	tok, err := url.QueryUnescape(m[1])
	require.NoError(t, err)
	return tok
}

func TestSignupSigninMe(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/signup", map[string]string{
		"email":    "user@example.com",
		"password": "s3cure-Pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeBody[struct {
		User struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"is_verified"`
		} `json:"user"`
	}](t, resp)
	assert.Equal(t, "user@example.com", body.User.Email)
	assert.False(t, body.User.IsVerified)

	me := env.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	meBody := decodeBody[struct {
		User  struct{ Email string }
		Quota struct {
			Plan      string `json:"plan"`
			Remaining int64  `json:"remaining"`
		} `json:"quota"`
	}](t, me)
	assert.Equal(t, "free", meBody.Quota.Plan)
	assert.EqualValues(t, 10, meBody.Quota.Remaining)
}

func TestSigninFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env.do(t, http.MethodPost, "/signout", nil)

	read := func(body map[string]string) (int, string) {
		r := env.do(t, http.MethodPost, "/signin", body)
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		return r.StatusCode, string(b)
	}

	wrongPassCode, wrongPassBody := read(map[string]string{"email": "user@example.com", "password": "nope-wrong1"})
	unknownCode, unknownBody := read(map[string]string{"email": "ghost@example.com", "password": "nope-wrong1"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassCode)
	assert.Equal(t, http.StatusUnauthorized, unknownCode)
	assert.JSONEq(t, wrongPassBody, unknownBody, "wrong password and unknown email must answer identically")
}

func TestSignoutRevokesSession(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})

	resp := env.do(t, http.MethodPost, "/signout", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	me := env.do(t, http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, me.StatusCode)
}

func TestSignoutAllRevokesOtherSessions(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})

	// A second browser signs in.
	otherJar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &testEnv{srv: env.srv, client: &http.Client{Jar: otherJar}}
	signin := other.do(t, http.MethodPost, "/signin", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})
	require.Equal(t, http.StatusOK, signin.StatusCode)
	require.Equal(t, http.StatusOK, other.do(t, http.MethodGet, "/me", nil).StatusCode)

	resp := env.do(t, http.MethodPost, "/signout/all", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, other.do(t, http.MethodGet, "/me", nil).StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})

	resp := env.do(t, http.MethodPost, "/password-reset", map[string]string{"email": "user@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := env.lastMailToken(t)

	confirm := env.do(t, http.MethodPost, "/password-reset/confirm", map[string]string{
		"token": token, "new_password": "n3w-Secret",
	})
	require.Equal(t, http.StatusOK, confirm.StatusCode)

	// The reset killed the session that was signed in before it.
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/me", nil).StatusCode)

	// Old password out, new password in.
	old := env.do(t, http.MethodPost, "/signin", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})
	assert.Equal(t, http.StatusUnauthorized, old.StatusCode)
	fresh := env.do(t, http.MethodPost, "/signin", map[string]string{
		"email": "user@example.com", "password": "n3w-Secret",
	})
	assert.Equal(t, http.StatusOK, fresh.StatusCode)

	// Token replay fails.
	replay := env.do(t, http.MethodPost, "/password-reset/confirm", map[string]string{
		"token": token, "new_password": "an0ther-Secret",
	})
	assert.Equal(t, http.StatusUnauthorized, replay.StatusCode)
}

func TestPasswordResetUnknownEmailIsGeneric(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	known := env.do(t, http.MethodPost, "/password-reset", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, known.StatusCode)
	_, sent := env.mails.last()
	assert.False(t, sent, "no email goes out for unknown addresses")
}

func TestMagicLinkFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/magic-link", map[string]string{"email": "new@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := env.lastMailToken(t)

	verify := env.do(t, http.MethodGet, "/magic-link/verify?token="+url.QueryEscape(token), nil)
	require.Equal(t, http.StatusOK, verify.StatusCode)
	body := decodeBody[struct {
		User struct {
			Email      string `json:"email"`
			IsVerified bool   `json:"is_verified"`
		} `json:"user"`
	}](t, verify)
	assert.Equal(t, "new@example.com", body.User.Email)
	assert.True(t, body.User.IsVerified)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/me", nil).StatusCode)

	// Replay of the link is refused.
	replay := env.do(t, http.MethodGet, "/magic-link/verify?token="+url.QueryEscape(token), nil)
	assert.Equal(t, http.StatusUnauthorized, replay.StatusCode)
}

func TestVerifyEmailFlow(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})
	token := env.lastMailToken(t)

	resp := env.do(t, http.MethodGet, "/verify-email?token="+url.QueryEscape(token), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[struct {
		IsVerified bool `json:"is_verified"`
	}](t, resp)
	assert.True(t, body.IsVerified)
}

func TestUsageConsume(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "user@example.com", "password": "s3cure-Pass",
	})

	resp := env.do(t, http.MethodPost, "/usage/consume", map[string]int64{"amount": 9})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Default amount is one generation.
	resp = env.do(t, http.MethodPost, "/usage/consume", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	over := env.do(t, http.MethodPost, "/usage/consume", nil)
	require.Equal(t, http.StatusPaymentRequired, over.StatusCode)
	body := decodeBody[struct {
		Code  string `json:"code"`
		Quota struct {
			Used      int64 `json:"used"`
			Remaining int64 `json:"remaining"`
		} `json:"quota"`
	}](t, over)
	assert.Equal(t, "quota_exceeded", body.Code)
	assert.EqualValues(t, 10, body.Quota.Used)
	assert.EqualValues(t, 0, body.Quota.Remaining)
}

func TestUsageConsumeRequiresAuth(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/usage/consume", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func oauthState(t *testing.T, resp *http.Response) string {
	t.Helper()
	loc := resp.Header.Get("Location")
	u, err := url.Parse(loc)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthHappyPath(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	begin := env.do(t, http.MethodGet, "/oauth/google?redirect=/covers", nil)
	require.Equal(t, http.StatusFound, begin.StatusCode)
	state := oauthState(t, begin)

	cb := env.do(t, http.MethodGet,
		fmt.Sprintf("/oauth/google/callback?state=%s&code=authcode", url.QueryEscape(state)), nil)
	require.Equal(t, http.StatusFound, cb.StatusCode)
	assert.Equal(t, "/covers", cb.Header.Get("Location"))
	assert.Equal(t, 1, env.oauth.resolveCalls())

	me := env.do(t, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	body := decodeBody[struct {
		User struct{ Email string }
	}](t, me)
	assert.Equal(t, "oauth@example.com", body.User.Email)
}

func TestOAuthRejectsTamperedState(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	begin := env.do(t, http.MethodGet, "/oauth/google", nil)
	require.Equal(t, http.StatusFound, begin.StatusCode)

	cb := env.do(t, http.MethodGet, "/oauth/google/callback?state=tampered&code=authcode", nil)
	assert.Equal(t, http.StatusUnauthorized, cb.StatusCode)
	assert.Zero(t, env.oauth.resolveCalls(), "tampered state must never reach the provider")
}

func TestOAuthRejectsMissingStateCookie(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	// Callback arrives with no preceding begin, so no cookie exists.
	cb := env.do(t, http.MethodGet, "/oauth/google/callback?state=whatever&code=authcode", nil)
	assert.Equal(t, http.StatusUnauthorized, cb.StatusCode)
	assert.Zero(t, env.oauth.resolveCalls())
}

func TestOAuthRejectsProviderError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	begin := env.do(t, http.MethodGet, "/oauth/google", nil)
	state := oauthState(t, begin)

	cb := env.do(t, http.MethodGet,
		fmt.Sprintf("/oauth/google/callback?state=%s&error=access_denied", url.QueryEscape(state)), nil)
	assert.Equal(t, http.StatusUnauthorized, cb.StatusCode)
	assert.Zero(t, env.oauth.resolveCalls(), "a denied grant must not trigger an exchange")
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	begin := env.do(t, http.MethodGet, "/oauth/google", nil)
	state := oauthState(t, begin)
	cbURL := fmt.Sprintf("/oauth/google/callback?state=%s&code=authcode", url.QueryEscape(state))

	first := env.do(t, http.MethodGet, cbURL, nil)
	require.Equal(t, http.StatusFound, first.StatusCode)

	// The handler deleted the cookie and the server consumed the state.
	second := env.do(t, http.MethodGet, cbURL, nil)
	assert.Equal(t, http.StatusUnauthorized, second.StatusCode)
	assert.Equal(t, 1, env.oauth.resolveCalls())
}

func TestUnknownOAuthProvider(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/oauth/facebook", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/signup", map[string]string{
		"email": "not-an-email", "password": "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody[struct {
		Code   string              `json:"code"`
		Fields map[string][]string `json:"fields"`
	}](t, resp)
	assert.Equal(t, "validation_error", body.Code)
	assert.Contains(t, body.Fields, "email")
	assert.Contains(t, body.Fields, "password")
}

func TestMalformedJSONBody(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/signin", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp, err := env.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
