package quota

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "quota:"

	// Counters expire on their own well after the quota day ends; the
	// TTL is a backstop for instances where the sweep never runs.
	redisCounterTTLSeconds = 48 * 60 * 60
)

// incrIfAllowed performs the check-and-increment atomically server-side.
// Returns {used, allowed} where allowed is 0 or 1.
var incrIfAllowed = redis.NewScript(`
local used = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if limit >= 0 and used >= limit then
  return {used, 0}
end
used = redis.call('INCR', KEYS[1])
if used == 1 then
  redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {used, 1}
`)

// RedisStore is a CounterStore backed by Redis, for deployments that run
// more than one instance behind a load balancer.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a CounterStore over an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key, day string) string {
	return redisKeyPrefix + day + ":" + key
}

// Get returns the current count for the key on the given day.
func (s *RedisStore) Get(ctx context.Context, key, day string) (int64, error) {
	used, err := s.client.Get(ctx, redisKey(key, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get: %w", err)
	}
	return used, nil
}

// IncrementIfAllowed atomically increments the counter when below limit.
func (s *RedisStore) IncrementIfAllowed(ctx context.Context, key, day string, limit int64) (int64, bool, error) {
	res, err := incrIfAllowed.Run(ctx, s.client,
		[]string{redisKey(key, day)},
		limit, redisCounterTTLSeconds,
	).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("redis increment: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis increment: unexpected reply %v", res)
	}
	return res[0], res[1] == 1, nil
}

// Reset deletes the counter for the key on the given day.
func (s *RedisStore) Reset(ctx context.Context, key, day string) error {
	if err := s.client.Del(ctx, redisKey(key, day)).Err(); err != nil {
		return fmt.Errorf("redis reset: %w", err)
	}
	return nil
}

// DeleteBefore removes counters for days strictly before the given day.
// Day strings are ISO dates, so the prefix comparison is chronological.
func (s *RedisStore) DeleteBefore(ctx context.Context, day string) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 500).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		rest := strings.TrimPrefix(k, redisKeyPrefix)
		counterDay, _, ok := strings.Cut(rest, ":")
		if !ok || counterDay >= day {
			continue
		}
		n, err := s.client.Del(ctx, k).Result()
		if err != nil {
			return removed, fmt.Errorf("redis sweep: %w", err)
		}
		removed += n
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis sweep: %w", err)
	}
	return removed, nil
}
