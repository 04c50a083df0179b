package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/pg"
	"github.com/coverly/bestauth/pkg/session"
)

func (s *Storage) Create(ctx context.Context, sess *session.Session) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, user_agent, ip, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sess.ID, sess.UserID, sess.TokenHash, sess.UserAgent, sess.IP, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *Storage) GetByTokenHash(ctx context.Context, hash string) (*session.Session, error) {
	var sess session.Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, user_agent, ip, created_at, expires_at, revoked_at
		FROM sessions
		WHERE token_hash = $1`,
		hash,
	).Scan(&sess.ID, &sess.UserID, &sess.TokenHash, &sess.UserAgent, &sess.IP,
		&sess.CreatedAt, &sess.ExpiresAt, &sess.RevokedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return &sess, nil
}

func (s *Storage) UpdateExpiry(ctx context.Context, id uuid.UUID, expiresAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET expires_at = $2
		WHERE id = $1 AND revoked_at IS NULL`,
		id, expiresAt)
	if err != nil {
		return fmt.Errorf("update session expiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

func (s *Storage) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL`,
		id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrNotFound
	}
	return nil
}

// RevokeAllForUser flips every live session of the user in one statement;
// there is no window where some are revoked and others still validate.
func (s *Storage) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = now()
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM sessions
		WHERE expires_at < $1 OR (revoked_at IS NOT NULL AND revoked_at < $1)`,
		before)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
