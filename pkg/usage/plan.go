package usage

import (
	"context"

	"github.com/google/uuid"
)

// Feature gates optional capabilities by plan.
type Feature string

const (
	FeatureHDCovers      Feature = "hd_covers"
	FeatureNoWatermark   Feature = "no_watermark"
	FeaturePriorityQueue Feature = "priority_queue"
)

// Plan describes a subscription tier: how many generations a user gets per
// calendar month and which features are on.
type Plan struct {
	ID           string
	Name         string
	MonthlyQuota int64
	Features     []Feature
}

// HasFeature reports whether the plan includes the feature.
func (p Plan) HasFeature(f Feature) bool {
	for _, have := range p.Features {
		if have == f {
			return true
		}
	}
	return false
}

// DefaultPlans is the built-in tier table. Deployments with billing swap in
// their own resolver.
func DefaultPlans() map[string]Plan {
	return map[string]Plan{
		"free": {
			ID:           "free",
			Name:         "Free",
			MonthlyQuota: 10,
		},
		"pro": {
			ID:           "pro",
			Name:         "Pro",
			MonthlyQuota: 500,
			Features:     []Feature{FeatureHDCovers, FeatureNoWatermark},
		},
		"studio": {
			ID:           "studio",
			Name:         "Studio",
			MonthlyQuota: 5000,
			Features:     []Feature{FeatureHDCovers, FeatureNoWatermark, FeaturePriorityQueue},
		},
	}
}

// PlanResolver maps a user to a plan ID. The default resolver pins everyone
// to the free tier.
type PlanResolver func(ctx context.Context, userID uuid.UUID) (string, error)

// StaticPlanResolver returns the same plan ID for every user.
func StaticPlanResolver(planID string) PlanResolver {
	return func(context.Context, uuid.UUID) (string, error) { return planID, nil }
}
