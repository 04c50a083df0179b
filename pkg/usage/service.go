package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Quota is a point-in-time view of a user's allowance.
type Quota struct {
	PlanID    string    `json:"plan"`
	Used      int64     `json:"used"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetsAt  time.Time `json:"resets_at"`
}

// Service enforces plan quotas over monthly counters. Counters are keyed by
// the UTC calendar month, so a quota resets by key rollover rather than by
// a scheduled job.
type Service struct {
	store    Store
	plans    map[string]Plan
	resolver PlanResolver
	now      func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithPlans replaces the built-in tier table.
func WithPlans(plans map[string]Plan) Option {
	return func(s *Service) { s.plans = plans }
}

// WithPlanResolver wires plan lookup, typically backed by billing.
func WithPlanResolver(r PlanResolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds the service. Without options every user is on the free
// tier of DefaultPlans.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		plans:    DefaultPlans(),
		resolver: StaticPlanResolver("free"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume counts amount generations against the user's quota. It fails with
// ErrQuotaExceeded, counting nothing, when the plan limit would be passed.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID, amount int64) (*Quota, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	period := s.period()
	used, ok, err := s.store.ConsumeCounter(ctx, userID, period, amount, plan.MonthlyQuota)
	if err != nil {
		return nil, fmt.Errorf("consume counter: %w", err)
	}

	q := s.quota(plan, used)
	if !ok {
		return q, ErrQuotaExceeded
	}
	return q, nil
}

// Remaining reports the user's current quota without consuming anything.
func (s *Service) Remaining(ctx context.Context, userID uuid.UUID) (*Quota, error) {
	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	used, err := s.store.GetCounter(ctx, userID, s.period())
	if err != nil {
		return nil, fmt.Errorf("read counter: %w", err)
	}

	return s.quota(plan, used), nil
}

// HasFeature reports whether the user's plan includes the feature.
func (s *Service) HasFeature(ctx context.Context, userID uuid.UUID, f Feature) (bool, error) {
	plan, err := s.planFor(ctx, userID)
	if err != nil {
		return false, err
	}
	return plan.HasFeature(f), nil
}

func (s *Service) planFor(ctx context.Context, userID uuid.UUID) (Plan, error) {
	planID, err := s.resolver(ctx, userID)
	if err != nil {
		return Plan{}, fmt.Errorf("resolve plan: %w", err)
	}
	plan, ok := s.plans[planID]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrUnknownPlan, planID)
	}
	return plan, nil
}

func (s *Service) period() string {
	return s.now().UTC().Format("2006-01")
}

func (s *Service) quota(plan Plan, used int64) *Quota {
	remaining := plan.MonthlyQuota - used
	if remaining < 0 {
		remaining = 0
	}
	now := s.now().UTC()
	reset := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return &Quota{
		PlanID:    plan.ID,
		Used:      used,
		Limit:     plan.MonthlyQuota,
		Remaining: remaining,
		ResetsAt:  reset,
	}
}
