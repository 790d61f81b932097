package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps fixed-window counters in Redis so replicas share limits.
// The counter key expires with the window.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
	period time.Duration
	now    func() time.Time
}

// NewRedisStore allows limit hits per key in every period.
func NewRedisStore(client *redis.Client, prefix string, limit int, period time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		limit:  limit,
		period: period,
		now:    time.Now,
	}
}

// Hit implements Store using INCR, with EXPIRE set on the first hit.
func (s *RedisStore) Hit(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", s.prefix, key)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: incr %s: %w", redisKey, err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, s.period).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire %s: %w", redisKey, err)
		}
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: ttl %s: %w", redisKey, err)
	}
	switch {
	case ttl == -1:
		// A key without TTL would never reset; repair it.
		if err := s.client.Expire(ctx, redisKey, s.period).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: repair expire %s: %w", redisKey, err)
		}
		ttl = s.period
	case ttl < 0:
		// Expired between INCR and TTL; the next hit opens a new window.
		ttl = 0
	}

	return newResult(int(count), s.limit, s.now().Add(ttl)), nil
}

var _ Store = (*RedisStore)(nil)
