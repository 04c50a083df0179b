package ratelimit

import "time"

// Config describes a token bucket: the burst capacity and the refill
// schedule.
type Config struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

// Result is the outcome of one rate limit check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the request may proceed.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long the caller should wait, zero when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}
