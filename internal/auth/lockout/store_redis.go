package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	failuresPrefix = "lockout:failures:"
	lockPrefix     = "lockout:lock:"
)

// RedisStore tracks failures in Redis so the lockout holds across replicas
// and restarts. TTLs do the expiry.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordFailure(ctx context.Context, key string, window time.Duration) (int, error) {
	failKey := failuresPrefix + key
	count, err := s.client.Incr(ctx, failKey).Result()
	if err != nil {
		return 0, fmt.Errorf("increment failures: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, failKey, window).Err(); err != nil {
			return 0, fmt.Errorf("set failure window: %w", err)
		}
	}
	return int(count), nil
}

func (s *RedisStore) Lock(ctx context.Context, key string, duration time.Duration) error {
	if err := s.client.Set(ctx, lockPrefix+key, "1", duration).Err(); err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

func (s *RedisStore) IsLocked(ctx context.Context, key string) (bool, time.Duration, error) {
	ttl, err := s.client.TTL(ctx, lockPrefix+key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("check lock: %w", err)
	}
	// TTL returns a negative duration when the key does not exist or has
	// no expiry.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, failuresPrefix+key, lockPrefix+key).Err(); err != nil {
		return fmt.Errorf("clear lockout: %w", err)
	}
	return nil
}
