package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cubicleally/ai-gateway/internal/config"
	"github.com/cubicleally/ai-gateway/internal/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Categories: config.DefaultCategories(),
		Tiers:      config.DefaultTiers(),
	}
}

func TestCheckAndConsume_AdmitsUpToLimit(t *testing.T) {
	limiter := New(NewMemoryStore(), testConfig())
	caller := identity.Anonymous("1.2.3.4")
	ctx := context.Background()

	// ai_interpret allows 10 per 60s
	for i := 0; i < 10; i++ {
		decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "call %d should be admitted", i+1)
		assert.Equal(t, 10-i-1, decision.Remaining)
	}

	decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)
	assert.LessOrEqual(t, decision.ResetSeconds, 60)
	assert.Greater(t, decision.ResetSeconds, 0)
}

func TestCheckAndConsume_CategoriesAreIndependent(t *testing.T) {
	limiter := New(NewMemoryStore(), testConfig())
	caller := identity.Anonymous("1.2.3.4")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	denied, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	// A different category for the same IP has its own counter.
	decision, err := limiter.CheckAndConsume(ctx, caller, "ai_enhance")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 19, decision.Remaining)
}

func TestCheckAndConsume_UnknownCategoryFallsBack(t *testing.T) {
	limiter := New(NewMemoryStore(), testConfig())
	caller := identity.Anonymous("1.2.3.4")

	decision, err := limiter.CheckAndConsume(context.Background(), caller, "ai_nonsense")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 30, decision.Limit)
	assert.Equal(t, "ai_default", decision.Category)
}

func TestCheckAndConsume_ProTierMultiplier(t *testing.T) {
	limiter := New(NewMemoryStore(), testConfig())
	userID := uuid.New()
	caller := identity.Identity{UserID: &userID, Tier: "pro"}
	ctx := context.Background()

	// ai_interpret base limit 10, pro multiplier 3
	for i := 0; i < 30; i++ {
		decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
		require.NoError(t, err)
		require.True(t, decision.Allowed, "call %d should be admitted", i+1)
	}

	decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCheckAndConsume_WindowResets(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	limiter := New(store, testConfig())
	caller := identity.Anonymous("1.2.3.4")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
		require.NoError(t, err)
	}

	denied, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	// Advance past the window; the exhausted key admits again.
	now = now.Add(61 * time.Second)

	decision, err := limiter.CheckAndConsume(ctx, caller, "ai_interpret")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 9, decision.Remaining)
}

func TestCheckAndConsume_ConcurrentCallersNeverOverAdmit(t *testing.T) {
	limiter := New(NewMemoryStore(), testConfig())
	caller := identity.Anonymous("9.9.9.9")

	const workers = 50 // limit for ai_interpret is 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.CheckAndConsume(context.Background(), caller, "ai_interpret")
			if err != nil {
				t.Error(err)
				return
			}
			if decision.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted, "exactly the limit must be admitted under concurrency")
}

func TestMemoryStore_TTL(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ttl, err := store.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Negative(t, ttl)

	_, err = store.Incr(ctx, "key", time.Minute)
	require.NoError(t, err)

	ttl, err = store.TTL(ctx, "key")
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Second)
	assert.LessOrEqual(t, ttl, time.Minute)
}
