package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/auth"
	"github.com/coverly/bestauth/pkg/pg"
)

func (s *Storage) CreateUser(ctx context.Context, user *auth.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, avatar_url, auth_method, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.Name, user.AvatarURL, user.AuthMethod, user.IsVerified, user.CreatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKey(err) {
			return auth.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, name, avatar_url, auth_method, is_verified, created_at`

func (s *Storage) scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.AuthMethod, &u.IsVerified, &u.CreatedAt)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *Storage) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Storage) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Storage) SetUserVerified(ctx context.Context, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET is_verified = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("mark user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Storage) StorePasswordHash(ctx context.Context, userID uuid.UUID, hash []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO password_credentials (user_id, password_hash, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET password_hash = EXCLUDED.password_hash, updated_at = now()`,
		userID, hash,
	)
	if err != nil {
		return fmt.Errorf("store password hash: %w", err)
	}
	return nil
}

func (s *Storage) GetPasswordHash(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	var hash []byte
	err := s.pool.QueryRow(ctx,
		`SELECT password_hash FROM password_credentials WHERE user_id = $1`, userID,
	).Scan(&hash)
	if err != nil {
		if pg.IsNotFound(err) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("read password hash: %w", err)
	}
	return hash, nil
}

func (s *Storage) UserHasPassword(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM password_credentials WHERE user_id = $1)`, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check password hash: %w", err)
	}
	return exists, nil
}
