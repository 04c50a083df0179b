package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/logger"
	"github.com/coverly/bestauth/pkg/token"
)

// Manager issues, validates and revokes sessions against a Store.
type Manager struct {
	store Store
	cfg   Config
	log   *slog.Logger
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger; the default discards.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock overrides the time source, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Manager over the given store.
func NewManager(store Store, cfg Config, opts ...Option) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	m := &Manager{
		store: store,
		cfg:   cfg,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Issue creates a session for userID and returns it together with the raw
// token. The raw value is the only copy that ever exists; the store keeps
// its digest.
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, meta Metadata) (*Session, string, error) {
	raw, err := token.NewOpaque()
	if err != nil {
		return nil, "", fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	s := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: token.Hash(raw),
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		CreatedAt: now,
		ExpiresAt: now.Add(m.cfg.TTL),
	}

	if err := m.store.Create(ctx, s); err != nil {
		return nil, "", fmt.Errorf("store session: %w", err)
	}

	m.log.InfoContext(ctx, "session issued",
		logger.SessionID(s.ID),
		logger.UserID(userID),
		logger.Component("session"),
	)

	return s, raw, nil
}

// Validate resolves a raw token to its session. Returns one of the
// taxonomy sentinels on failure; callers map all of them to the same
// generic unauthenticated response.
func (m *Manager) Validate(ctx context.Context, raw string) (*Session, error) {
	if len(raw) < 16 || len(raw) > 128 {
		return nil, ErrMalformed
	}

	s, err := m.store.GetByTokenHash(ctx, token.Hash(raw))
	if err != nil {
		return nil, err
	}

	if s.IsRevoked() {
		return nil, ErrRevoked
	}
	if m.now().After(s.ExpiresAt) {
		return nil, ErrExpired
	}

	return s, nil
}

// Refresh extends a valid session by a full TTL from now. Expiry is never
// extended implicitly; this is the one explicit path.
func (m *Manager) Refresh(ctx context.Context, raw string) (*Session, error) {
	s, err := m.Validate(ctx, raw)
	if err != nil {
		return nil, err
	}

	s.ExpiresAt = m.now().Add(m.cfg.TTL)
	if err := m.store.UpdateExpiry(ctx, s.ID, s.ExpiresAt); err != nil {
		return nil, fmt.Errorf("update session expiry: %w", err)
	}

	return s, nil
}

// Revoke invalidates the session carrying the raw token. Revoking an
// already-dead session is not an error; logout must be idempotent.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	if len(raw) == 0 {
		return nil
	}

	s, err := m.store.GetByTokenHash(ctx, token.Hash(raw))
	if err != nil {
		if IsInvalid(err) {
			return nil
		}
		return fmt.Errorf("resolve session: %w", err)
	}

	if err := m.store.Revoke(ctx, s.ID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	m.log.InfoContext(ctx, "session revoked",
		logger.SessionID(s.ID),
		logger.UserID(s.UserID),
		logger.Component("session"),
	)
	return nil
}

// RevokeAll invalidates every active session of the user in one atomic
// store operation ("log out everywhere").
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	n, err := m.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("revoke all sessions: %w", err)
	}

	m.log.InfoContext(ctx, "all sessions revoked",
		logger.UserID(userID),
		slog.Int64("count", n),
		logger.Component("session"),
	)
	return nil
}

// StartCleanup launches the lazy expiry sweep. It stops when ctx is done.
func (m *Manager) StartCleanup(ctx context.Context) {
	if m.cfg.CleanupInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(m.cfg.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := m.now().Add(-m.cfg.Retention)
				if n, err := m.store.DeleteExpired(ctx, cutoff); err != nil {
					m.log.ErrorContext(ctx, "session sweep failed", logger.Error(err), logger.Component("session"))
				} else if n > 0 {
					m.log.DebugContext(ctx, "session sweep", slog.Int64("deleted", n), logger.Component("session"))
				}
			}
		}
	}()
}
