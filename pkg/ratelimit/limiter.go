package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store is the bucket state backend.
type Store interface {
	// ConsumeTokens refills the bucket for key per config, then takes
	// tokens from it, all atomically. A negative remaining means the
	// request must be denied; the tokens were still subtracted so repeat
	// offenders dig themselves deeper into the wait.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset clears the state for key.
	Reset(ctx context.Context, key string) error
}

// Limiter is the rate limiting interface handlers depend on.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	AllowN(ctx context.Context, key string, n int) (*Result, error)
}

// Bucket is a token bucket limiter over a pluggable store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket validates the config and builds a limiter.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, config.Capacity)
	}
	if config.RefillRate <= 0 {
		return nil, fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, config.RefillRate)
	}
	if config.RefillInterval <= 0 {
		return nil, fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, config.RefillInterval)
	}
	return &Bucket{store: store, config: config}, nil
}

func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return b.AllowN(ctx, key, 1)
}

func (b *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}

	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.config)
	if err != nil {
		return nil, err
	}

	return &Result{Limit: b.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// Reset clears the bucket for key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
