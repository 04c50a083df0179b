package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/pg"
)

func (s *Storage) CreateState(ctx context.Context, state *auth.OAuthState) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_states (id, state_hash, provider, redirect_path, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		state.ID, state.StateHash, state.Provider, state.RedirectPath, state.CreatedAt, state.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert oauth state: %w", err)
	}
	return nil
}

// ConsumeState deletes the state row and returns it in one statement, so a
// replayed state finds nothing.
func (s *Storage) ConsumeState(ctx context.Context, stateHash string) (*auth.OAuthState, error) {
	var st auth.OAuthState
	err := s.pool.QueryRow(ctx, `
		DELETE FROM oauth_states
		WHERE state_hash = $1
		RETURNING id, state_hash, provider, redirect_path, created_at, expires_at`,
		stateHash,
	).Scan(&st.ID, &st.StateHash, &st.Provider, &st.RedirectPath, &st.CreatedAt, &st.ExpiresAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, auth.ErrStateNotFound
		}
		return nil, fmt.Errorf("consume oauth state: %w", err)
	}
	return &st, nil
}

func (s *Storage) DeleteExpiredStates(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM oauth_states WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired states: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) CreateLink(ctx context.Context, link *auth.OAuthLink) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO oauth_links (id, user_id, provider, provider_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		link.ID, link.UserID, link.Provider, link.ProviderUserID, link.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKey(err) {
			return auth.ErrProviderLinked
		}
		return fmt.Errorf("insert oauth link: %w", err)
	}
	return nil
}

func (s *Storage) GetLinkByProviderID(ctx context.Context, provider, providerUserID string) (*auth.OAuthLink, error) {
	var l auth.OAuthLink
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM oauth_links
		WHERE provider = $1 AND provider_user_id = $2`,
		provider, providerUserID,
	).Scan(&l.ID, &l.UserID, &l.Provider, &l.ProviderUserID, &l.CreatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, auth.ErrNoProviderLink
		}
		return nil, fmt.Errorf("read oauth link: %w", err)
	}
	return &l, nil
}

func (s *Storage) GetLinksByUserID(ctx context.Context, userID uuid.UUID) ([]auth.OAuthLink, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, provider, provider_user_id, created_at
		FROM oauth_links
		WHERE user_id = $1
		ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list oauth links: %w", err)
	}
	defer rows.Close()

	var links []auth.OAuthLink
	for rows.Next() {
		var l auth.OAuthLink
		if err := rows.Scan(&l.ID, &l.UserID, &l.Provider, &l.ProviderUserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan oauth link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate oauth links: %w", err)
	}
	return links, nil
}

func (s *Storage) DeleteLink(ctx context.Context, userID uuid.UUID, provider string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM oauth_links WHERE user_id = $1 AND provider = $2`,
		userID, provider)
	if err != nil {
		return fmt.Errorf("delete oauth link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrNoProviderLink
	}
	return nil
}
