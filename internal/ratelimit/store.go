package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/cubicleally/ai-gateway/internal/storage"
)

// Store is a counter backend. Incr must atomically increment the counter and
// attach the window TTL when the increment creates it: a separate
// get-then-set is not acceptable because concurrent callers would race past
// the limit.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type RedisStore struct {
	redis *storage.RedisClient
}

func NewRedisStore(redis *storage.RedisClient) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	return s.redis.IncrWithExpire(ctx, key, window)
}

func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.redis.TTL(ctx, key)
}

// MemoryStore keeps counters in process memory behind a mutex. Used in tests
// and single-instance deployments without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	now      func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*memoryCounter),
		now:      time.Now,
	}
}

func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counter, ok := s.counters[key]
	if !ok || now.After(counter.expiresAt) {
		counter = &memoryCounter{expiresAt: now.Add(window)}
		s.counters[key] = counter
	}

	counter.count++
	return counter.count, nil
}

func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counter, ok := s.counters[key]
	if !ok {
		return -1, nil
	}

	ttl := counter.expiresAt.Sub(s.now())
	if ttl < 0 {
		return -1, nil
	}
	return ttl, nil
}
