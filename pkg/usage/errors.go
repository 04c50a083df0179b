package usage

import "errors"

var (
	// ErrQuotaExceeded means the consume would push usage past the plan
	// limit; nothing was counted.
	ErrQuotaExceeded = errors.New("generation quota exceeded")

	// ErrUnknownPlan means the resolver returned a plan ID that is not in
	// the tier table.
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrInvalidAmount rejects non-positive consume amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
)
