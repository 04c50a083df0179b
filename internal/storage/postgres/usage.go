package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coverly/bestauth/pkg/pg"
)

// ConsumeCounter upserts the counter and adds amount only when the result
// stays within limit. The conditional UPDATE keeps the check and the
// increment in one statement, so concurrent consumers cannot overshoot.
func (s *Storage) ConsumeCounter(ctx context.Context, userID uuid.UUID, period string, amount, limit int64) (int64, bool, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO usage_counters (user_id, period, used)
		VALUES ($1, $2, 0)
		ON CONFLICT (user_id, period) DO NOTHING`,
		userID, period)
	if err != nil {
		return 0, false, fmt.Errorf("init usage counter: %w", err)
	}

	var used int64
	err = s.pool.QueryRow(ctx, `
		UPDATE usage_counters
		SET used = used + $3
		WHERE user_id = $1 AND period = $2 AND used + $3 <= $4
		RETURNING used`,
		userID, period, amount, limit,
	).Scan(&used)
	if err == nil {
		return used, true, nil
	}
	if !pg.IsNotFound(err) {
		return 0, false, fmt.Errorf("consume usage counter: %w", err)
	}

	// The guard refused the increment; report the untouched counter.
	used, readErr := s.GetCounter(ctx, userID, period)
	if readErr != nil {
		return 0, false, readErr
	}
	return used, false, nil
}

func (s *Storage) GetCounter(ctx context.Context, userID uuid.UUID, period string) (int64, error) {
	var used int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT used FROM usage_counters WHERE user_id = $1 AND period = $2), 0)`,
		userID, period,
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	return used, nil
}
