package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/auth"
)

// memStore is an in-memory implementation of every auth storage interface,
// shared across the package tests.
type memStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*auth.User
	emails map[string]uuid.UUID
	hashes map[uuid.UUID][]byte
	tokens map[string]*auth.EphemeralToken
	states map[string]*auth.OAuthState
	links  []auth.OAuthLink
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uuid.UUID]*auth.User),
		emails: make(map[string]uuid.UUID),
		hashes: make(map[uuid.UUID][]byte),
		tokens: make(map[string]*auth.EphemeralToken),
		states: make(map[string]*auth.OAuthState),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[user.Email]; ok {
		return auth.ErrEmailAlreadyExists
	}
	u := *user
	m.users[user.ID] = &u
	m.emails[user.Email] = user.ID
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *memStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		delete(m.emails, u.Email)
		delete(m.users, id)
	}
	return nil
}

func (m *memStore) SetUserVerified(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.IsVerified = true
	return nil
}

func (m *memStore) StorePasswordHash(_ context.Context, userID uuid.UUID, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[userID] = append([]byte(nil), hash...)
	return nil
}

func (m *memStore) GetPasswordHash(_ context.Context, userID uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[userID]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return h, nil
}

func (m *memStore) UserHasPassword(_ context.Context, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.hashes[userID]
	return ok, nil
}

func (m *memStore) CreateToken(_ context.Context, t *auth.EphemeralToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tokens[t.TokenHash] = &cp
	return nil
}

func (m *memStore) ConsumeToken(_ context.Context, tokenHash string, purpose auth.Purpose) (*auth.EphemeralToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || t.Purpose != purpose {
		return nil, auth.ErrTokenInvalid
	}
	if t.UsedAt != nil {
		return nil, auth.ErrTokenUsed
	}
	now := time.Now()
	t.UsedAt = &now
	cp := *t
	return &cp, nil
}

func (m *memStore) DeleteExpiredTokens(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateState(_ context.Context, state *auth.OAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	m.states[state.StateHash] = &cp
	return nil
}

func (m *memStore) ConsumeState(_ context.Context, stateHash string) (*auth.OAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[stateHash]
	if !ok {
		return nil, auth.ErrStateNotFound
	}
	delete(m.states, stateHash)
	cp := *st
	return &cp, nil
}

func (m *memStore) DeleteExpiredStates(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, st := range m.states {
		if st.ExpiresAt.Before(before) {
			delete(m.states, k)
			n++
		}
	}
	return n, nil
}

func (m *memStore) CreateLink(_ context.Context, link *auth.OAuthLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, *link)
	return nil
}

func (m *memStore) GetLinkByProviderID(_ context.Context, provider, providerUserID string) (*auth.OAuthLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Provider == provider && l.ProviderUserID == providerUserID {
			cp := l
			return &cp, nil
		}
	}
	return nil, auth.ErrNoProviderLink
}

func (m *memStore) GetLinksByUserID(_ context.Context, userID uuid.UUID) ([]auth.OAuthLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []auth.OAuthLink
	for _, l := range m.links {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) DeleteLink(_ context.Context, userID uuid.UUID, provider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.links {
		if l.UserID == userID && l.Provider == provider {
			m.links = append(m.links[:i], m.links[i+1:]...)
			return nil
		}
	}
	return auth.ErrNoProviderLink
}

// fakeRevoker records RevokeAll calls.
type fakeRevoker struct {
	mu      sync.Mutex
	revoked []uuid.UUID
}

func (r *fakeRevoker) RevokeAll(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked = append(r.revoked, userID)
	return nil
}

// fakeAdapter is a scripted provider for OAuth flow tests. It counts
// ResolveProfile calls so tests can assert the exchange never happened.
type fakeAdapter struct {
	id      string
	profile *auth.Profile
	err     error

	mu       sync.Mutex
	resolved int
}

func (a *fakeAdapter) ProviderID() string { return a.id }

func (a *fakeAdapter) AuthURL(state string) string {
	return "https://provider.test/authorize?state=" + state
}

func (a *fakeAdapter) ResolveProfile(_ context.Context, _ string) (*auth.Profile, error) {
	a.mu.Lock()
	a.resolved++
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	cp := *a.profile
	return &cp, nil
}

func (a *fakeAdapter) resolveCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolved
}
