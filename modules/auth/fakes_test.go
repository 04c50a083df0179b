package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/email"
)

// fakeStore backs every auth storage interface in memory for the module
// tests.
type fakeStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*authsvc.User
	emails map[string]uuid.UUID
	hashes map[uuid.UUID][]byte
	tokens map[string]*authsvc.EphemeralToken
	states map[string]*authsvc.OAuthState
	links  []authsvc.OAuthLink
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[uuid.UUID]*authsvc.User),
		emails: make(map[string]uuid.UUID),
		hashes: make(map[uuid.UUID][]byte),
		tokens: make(map[string]*authsvc.EphemeralToken),
		states: make(map[string]*authsvc.OAuthState),
	}
}

func (s *fakeStore) CreateUser(_ context.Context, user *authsvc.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[user.Email]; ok {
		return authsvc.ErrEmailAlreadyExists
	}
	u := *user
	s.users[user.ID] = &u
	s.emails[user.Email] = user.ID
	return nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id uuid.UUID) (*authsvc.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, authsvc.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, addr string) (*authsvc.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[addr]
	if !ok {
		return nil, authsvc.ErrUserNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *fakeStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		delete(s.emails, u.Email)
		delete(s.users, id)
	}
	return nil
}

func (s *fakeStore) SetUserVerified(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return authsvc.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (s *fakeStore) StorePasswordHash(_ context.Context, userID uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[userID] = append([]byte(nil), hash...)
	return nil
}

func (s *fakeStore) GetPasswordHash(_ context.Context, userID uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[userID]
	if !ok {
		return nil, authsvc.ErrUserNotFound
	}
	return h, nil
}

func (s *fakeStore) UserHasPassword(_ context.Context, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.hashes[userID]
	return ok, nil
}

func (s *fakeStore) CreateToken(_ context.Context, t *authsvc.EphemeralToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.TokenHash] = &cp
	return nil
}

func (s *fakeStore) ConsumeToken(_ context.Context, tokenHash string, purpose authsvc.Purpose) (*authsvc.EphemeralToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok || t.Purpose != purpose {
		return nil, authsvc.ErrTokenInvalid
	}
	if t.UsedAt != nil {
		return nil, authsvc.ErrTokenUsed
	}
	now := time.Now()
	t.UsedAt = &now
	cp := *t
	return &cp, nil
}

func (s *fakeStore) DeleteExpiredTokens(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CreateState(_ context.Context, state *authsvc.OAuthState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *state
	s.states[state.StateHash] = &cp
	return nil
}

func (s *fakeStore) ConsumeState(_ context.Context, stateHash string) (*authsvc.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[stateHash]
	if !ok {
		return nil, authsvc.ErrStateNotFound
	}
	delete(s.states, stateHash)
	cp := *st
	return &cp, nil
}

func (s *fakeStore) DeleteExpiredStates(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *fakeStore) CreateLink(_ context.Context, link *authsvc.OAuthLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = append(s.links, *link)
	return nil
}

func (s *fakeStore) GetLinkByProviderID(_ context.Context, provider, providerUserID string) (*authsvc.OAuthLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.links {
		if l.Provider == provider && l.ProviderUserID == providerUserID {
			cp := l
			return &cp, nil
		}
	}
	return nil, authsvc.ErrNoProviderLink
}

func (s *fakeStore) GetLinksByUserID(_ context.Context, userID uuid.UUID) ([]authsvc.OAuthLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []authsvc.OAuthLink
	for _, l := range s.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteLink(_ context.Context, userID uuid.UUID, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.links {
		if l.UserID == userID && l.Provider == provider {
			s.links = append(s.links[:i], s.links[i+1:]...)
			return nil
		}
	}
	return authsvc.ErrNoProviderLink
}

// captureSender records outbound mail so tests can pull tokens out of the
// links.
type captureSender struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
}

func (c *captureSender) SendEmail(_ context.Context, params email.SendEmailParams) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, params)
	return nil
}

func (c *captureSender) last() (email.SendEmailParams, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return email.SendEmailParams{}, false
	}
	return c.sent[len(c.sent)-1], true
}

// fakeOAuth is a scripted provider adapter counting exchange calls.
type fakeOAuth struct {
	id      string
	profile authsvc.Profile
	err     error

	mu       sync.Mutex
	resolved int
}

func (a *fakeOAuth) ProviderID() string { return a.id }

func (a *fakeOAuth) AuthURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (a *fakeOAuth) ResolveProfile(context.Context, string) (*authsvc.Profile, error) {
	a.mu.Lock()
	a.resolved++
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	cp := a.profile
	return &cp, nil
}

func (a *fakeOAuth) resolveCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolved
}
