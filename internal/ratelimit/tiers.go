package ratelimit

import (
	"context"
	"time"
)

// Tier selects the bucket parameters for one consumer class
type Tier struct {
	Name         string
	MaxTokens    float64
	RefillPerSec float64
}

// Window is the time a drained bucket takes to refill completely
func (t Tier) Window() time.Duration {
	return time.Duration(t.MaxTokens / t.RefillPerSec * float64(time.Second))
}

// Tier table: requests per hour per agency plan
var tiers = map[string]Tier{
	"free":       {Name: "free", MaxTokens: 100, RefillPerSec: 100.0 / 3600},
	"pro":        {Name: "pro", MaxTokens: 1000, RefillPerSec: 1000.0 / 3600},
	"enterprise": {Name: "enterprise", MaxTokens: 10000, RefillPerSec: 10000.0 / 3600},
}

// TierByName resolves a tier, falling back to free for unknown names
func TierByName(name string) Tier {
	if t, ok := tiers[name]; ok {
		return t
	}
	return tiers["free"]
}

// LargestWindow is the slowest full-refill window across all tiers, used to
// bound how long idle bucket entries are kept.
func LargestWindow() time.Duration {
	var largest time.Duration
	for _, t := range tiers {
		if w := t.Window(); w > largest {
			largest = w
		}
	}
	return largest
}

// Decision is the outcome of one CheckAndConsume call
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateStore holds bucket state. The in-memory store is process-local; the
// redis store shares the limit across instances. The math is identical.
type RateStore interface {
	Take(ctx context.Context, key string, tier Tier) (Decision, error)
}

// TierResolver maps a consumer key to its current tier. Re-resolved on every
// call so tier upgrades take effect immediately.
type TierResolver func(ctx context.Context, key string) (Tier, error)

// Governor is the consumer-facing rate limiter: tier lookup + token bucket
type Governor struct {
	store   RateStore
	resolve TierResolver
}

func NewGovernor(store RateStore, resolve TierResolver) *Governor {
	return &Governor{store: store, resolve: resolve}
}

// CheckAndConsume spends one token from the consumer's bucket if available
func (g *Governor) CheckAndConsume(ctx context.Context, key string) (Decision, error) {
	tier, err := g.resolve(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return g.store.Take(ctx, key, tier)
}
