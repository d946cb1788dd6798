package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ratelimit:"

// INCR and set the window TTL on first hit, atomically.
var incrementScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
return {n, ttl}
`)

// RedisLimiter shares one fixed window per key across all instances using the
// same Redis.
type RedisLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: defaultKeyPrefix,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	if l.limit <= 0 {
		return Result{Allowed: true}, nil
	}

	res, err := incrementScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return Result{}, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Result{}, errors.New("unexpected rate limit response type")
	}
	count, ok := vals[0].(int64)
	if !ok {
		return Result{}, errors.New("unexpected rate limit count type")
	}
	ttl, ok := vals[1].(int64)
	if !ok {
		return Result{}, errors.New("unexpected rate limit ttl type")
	}

	resetIn := time.Duration(ttl) * time.Millisecond
	if ttl < 0 {
		resetIn = l.window
	}
	return newResult(int(count), l.limit, resetIn), nil
}
