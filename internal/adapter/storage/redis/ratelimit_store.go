package redis

import (
	"context"
	"fmt"
	"time"

	"splitledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.RateLimitStore using fixed-window
// counters: INCR + EXPIRE on a key scoped by windowID, where windowID is
// time divided by the window duration.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// Allow consumes one unit from the current window and reports the outcome.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	windowID, redisKey := s.windowKey(key, window)

	// Increment counter atomically
	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis rate limit incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second) // +1s safety margin
	}

	return result(count <= limit, limit, count, windowID, window), nil
}

// Status reports the current window without consuming anything. Allowed
// means a further Allow call would still succeed.
func (s *RateLimitStore) Status(ctx context.Context, key string, limit int64, window time.Duration) (*ports.RateLimitResult, error) {
	windowID, redisKey := s.windowKey(key, window)

	count, err := s.client.Get(ctx, redisKey).Int64()
	if err != nil && err != goredis.Nil {
		return nil, fmt.Errorf("redis rate limit get: %w", err)
	}

	return result(count < limit, limit, count, windowID, window), nil
}

func (s *RateLimitStore) windowKey(key string, window time.Duration) (int64, string) {
	windowID := time.Now().Unix() / int64(window.Seconds())
	return windowID, fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)
}

func result(allowed bool, limit, count, windowID int64, window time.Duration) *ports.RateLimitResult {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return &ports.RateLimitResult{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * int64(window.Seconds()),
	}
}
