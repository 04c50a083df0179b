// Package postgres implements every storage interface of the auth domain
// on a pgx connection pool.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage bundles all store implementations over one pool. It satisfies
// auth.PasswordStorage, auth.MagicLinkStorage, auth.OAuthStorage,
// auth.EphemeralStorage, session.Store and usage.Store.
type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}
