package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// attemptsTTL bounds how long a verify-attempt counter can outlive its code.
const attemptsTTL = 15 * time.Minute

// OTPStore implements ports.OTPStore. Codes and their verify-attempt
// counters live in Redis so every instance sees the same state.
type OTPStore struct {
	client *goredis.Client
	prefix string
}

// NewOTPStore creates a new Redis-backed OTP store.
func NewOTPStore(client *goredis.Client) *OTPStore {
	return &OTPStore{
		client: client,
		prefix: "otp:",
	}
}

// Set stores a fresh code and resets the attempt counter for the mobile.
func (s *OTPStore) Set(ctx context.Context, mobile, code string, ttl time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.codeKey(mobile), code, ttl)
	pipe.Del(ctx, s.attemptsKey(mobile))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis otp set: %w", err)
	}
	return nil
}

// Get returns the stored code, or "" when absent or expired.
func (s *OTPStore) Get(ctx context.Context, mobile string) (string, error) {
	code, err := s.client.Get(ctx, s.codeKey(mobile)).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("redis otp get: %w", err)
	}
	return code, nil
}

// IncrementAttempts bumps and returns the verify-attempt counter.
func (s *OTPStore) IncrementAttempts(ctx context.Context, mobile string) (int64, error) {
	key := s.attemptsKey(mobile)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis otp incr attempts: %w", err)
	}
	if count == 1 {
		s.client.Expire(ctx, key, attemptsTTL)
	}
	return count, nil
}

// Delete discards the code and its attempt counter.
func (s *OTPStore) Delete(ctx context.Context, mobile string) error {
	if err := s.client.Del(ctx, s.codeKey(mobile), s.attemptsKey(mobile)).Err(); err != nil {
		return fmt.Errorf("redis otp delete: %w", err)
	}
	return nil
}

func (s *OTPStore) codeKey(mobile string) string {
	return s.prefix + mobile
}

func (s *OTPStore) attemptsKey(mobile string) string {
	return s.prefix + mobile + ":attempts"
}
