package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/pg"
)

func (s *Storage) CreateToken(ctx context.Context, t *auth.EphemeralToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ephemeral_tokens (id, token_hash, purpose, subject, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.TokenHash, string(t.Purpose), t.Subject, t.CreatedAt, t.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert ephemeral token: %w", err)
	}
	return nil
}

// ConsumeToken claims the token with a single conditional update. The
// used_at guard in the WHERE clause is what makes two concurrent consumers
// resolve to exactly one winner.
func (s *Storage) ConsumeToken(ctx context.Context, tokenHash string, purpose auth.Purpose) (*auth.EphemeralToken, error) {
	var t auth.EphemeralToken
	var purposeStr string
	err := s.pool.QueryRow(ctx, `
		UPDATE ephemeral_tokens
		SET used_at = now()
		WHERE token_hash = $1 AND purpose = $2 AND used_at IS NULL
		RETURNING id, token_hash, purpose, subject, created_at, expires_at, used_at`,
		tokenHash, string(purpose),
	).Scan(&t.ID, &t.TokenHash, &purposeStr, &t.Subject, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
	if err == nil {
		t.Purpose = auth.Purpose(purposeStr)
		return &t, nil
	}
	if !pg.IsNotFound(err) {
		return nil, fmt.Errorf("consume ephemeral token: %w", err)
	}

	// No row claimed: distinguish "already used" from "never existed" for
	// the caller's error, without weakening the atomic claim above.
	var exists bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM ephemeral_tokens
			WHERE token_hash = $1 AND purpose = $2 AND used_at IS NOT NULL
		)`, tokenHash, string(purpose),
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check ephemeral token: %w", err)
	}
	if exists {
		return nil, auth.ErrTokenUsed
	}
	return nil, auth.ErrTokenInvalid
}

func (s *Storage) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ephemeral_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
