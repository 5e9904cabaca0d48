package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces limiter keys.
const DefaultRedisPrefix = "ratelimit:"

// hitScript starts or advances a window stored as a hash. Expired windows are
// restarted inline; PEXPIRE lets redis drop idle keys on its own.
var hitScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local reset = tonumber(redis.call('HGET', KEYS[1], 'reset') or '0')
if reset == 0 or now > reset then
	redis.call('HSET', KEYS[1], 'count', 1, 'reset', now + window, 'first', now)
	redis.call('PEXPIRE', KEYS[1], window)
	return {1, now + window, now}
end
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
local first = tonumber(redis.call('HGET', KEYS[1], 'first') or now)
return {count, reset, first}
`)

var decrementScript = redis.NewScript(`
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
if count > 0 then
	redis.call('HINCRBY', KEYS[1], 'count', -1)
end
return count
`)

// RedisStore shares counters between instances through redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	vals, err := hitScript.Run(ctx, s.client, []string{s.prefix + key}, now.UnixMilli(), window.Milliseconds()).Int64Slice()
	if err != nil {
		return Entry{}, fmt.Errorf("ratelimit: redis hit: %w", err)
	}
	if len(vals) != 3 {
		return Entry{}, fmt.Errorf("ratelimit: redis hit: unexpected reply %v", vals)
	}
	return Entry{
		Count:        int(vals[0]),
		ResetAt:      time.UnixMilli(vals[1]),
		FirstAttempt: time.UnixMilli(vals[2]),
	}, nil
}

func (s *RedisStore) Peek(ctx context.Context, key string) (Entry, bool, error) {
	vals, err := s.client.HMGet(ctx, s.prefix+key, "count", "reset", "first").Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: redis peek: %w", err)
	}
	if len(vals) != 3 || vals[0] == nil {
		return Entry{}, false, nil
	}

	nums := make([]int64, 3)
	for i, v := range vals {
		str, _ := v.(string)
		nums[i], _ = strconv.ParseInt(str, 10, 64)
	}
	return Entry{
		Count:        int(nums[0]),
		ResetAt:      time.UnixMilli(nums[1]),
		FirstAttempt: time.UnixMilli(nums[2]),
	}, true, nil
}

func (s *RedisStore) Decrement(ctx context.Context, key string) error {
	err := decrementScript.Run(ctx, s.client, []string{s.prefix + key}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("ratelimit: redis decrement: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Clear deletes every key under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+"*", 200).Result()
		if err != nil {
			return fmt.Errorf("ratelimit: redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("ratelimit: redis clear: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Sweep is a no-op: keys carry their own TTL.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
