package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares failure counts across instances. Keys carry the lockout
// window as TTL so entries expire without a cleanup job.
type RedisStore struct {
	client *redis.Client
	window time.Duration
}

func NewRedis(client *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{client: client, window: window}
}

func key(email string) string {
	return "lockout:signin:" + email
}

func (s *RedisStore) RecordFailure(ctx context.Context, email string) (int, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key(email))
	pipe.Expire(ctx, key(email), s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record sign-in failure: %w", err)
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Clear(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("clear sign-in failures: %w", err)
	}
	return nil
}

func (s *RedisStore) IsLocked(ctx context.Context, email string) (bool, error) {
	count, err := s.client.Get(ctx, key(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check sign-in lockout: %w", err)
	}
	return count >= MaxFailures, nil
}
