package ratelimit

import (
	"context"
	"fmt"

	"github.com/cubicleally/ai-gateway/internal/config"
	"github.com/cubicleally/ai-gateway/internal/identity"
)

// Decision is the outcome of one rate limit check. A denied call is a normal
// value, not an error.
type Decision struct {
	Allowed      bool   `json:"allowed"`
	Limit        int    `json:"limit"`
	Remaining    int    `json:"remaining"`
	ResetSeconds int    `json:"reset_seconds"`
	Category     string `json:"category"`
}

type Limiter struct {
	store Store
	cfg   *config.Config
}

func New(store Store, cfg *config.Config) *Limiter {
	return &Limiter{store: store, cfg: cfg}
}

// CheckAndConsume admits or denies one call for the given caller and
// category, consuming one unit of quota when admitted. The effective limit
// is the category base limit scaled by the caller's tier multiplier.
func (l *Limiter) CheckAndConsume(ctx context.Context, id identity.Identity, category string) (Decision, error) {
	cat := l.cfg.Category(category)
	limit := cat.Limit * l.cfg.TierMultiplier(id.Tier)
	key := fmt.Sprintf("ratelimit:%s:%s", cat.Name, id.RateKey())

	count, err := l.store.Incr(ctx, key, cat.Window())
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	decision := Decision{
		Limit:    limit,
		Category: cat.Name,
	}

	if count > int64(limit) {
		// Counts past the limit are transient over-limit observations;
		// they only exist to compute the denial.
		decision.ResetSeconds = l.resetSeconds(ctx, key, cat)
		return decision, nil
	}

	decision.Allowed = true
	decision.Remaining = limit - int(count)
	decision.ResetSeconds = l.resetSeconds(ctx, key, cat)
	return decision, nil
}

// resetSeconds reports the counter's remaining TTL, falling back to the full
// window when the store cannot answer.
func (l *Limiter) resetSeconds(ctx context.Context, key string, cat config.CategoryConfig) int {
	ttl, err := l.store.TTL(ctx, key)
	if err != nil || ttl <= 0 {
		return cat.WindowSeconds
	}
	return int(ttl.Seconds() + 0.5)
}
