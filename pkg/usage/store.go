package usage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store persists per-user counters keyed by billing period.
type Store interface {
	// ConsumeCounter adds amount to the user's counter for the period only
	// if the result stays within limit, in one atomic step, and returns
	// the counter value after the call. ok is false and the counter is
	// untouched when the increment would exceed the limit.
	ConsumeCounter(ctx context.Context, userID uuid.UUID, period string, amount, limit int64) (used int64, ok bool, err error)

	// GetCounter returns the user's counter for the period, zero if absent.
	GetCounter(ctx context.Context, userID uuid.UUID, period string) (int64, error)
}

type counterKey struct {
	userID uuid.UUID
	period string
}

// MemoryStore is a mutex-guarded Store for tests and single-node use.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[counterKey]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[counterKey]int64)}
}

func (s *MemoryStore) ConsumeCounter(_ context.Context, userID uuid.UUID, period string, amount, limit int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := counterKey{userID: userID, period: period}
	used := s.counters[key]
	if used+amount > limit {
		return used, false, nil
	}
	used += amount
	s.counters[key] = used
	return used, true, nil
}

func (s *MemoryStore) GetCounter(_ context.Context, userID uuid.UUID, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[counterKey{userID: userID, period: period}], nil
}
