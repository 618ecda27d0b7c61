package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, then admits and records the request
// if the window has room. Returns {allowed, remaining, reset_at_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return {1, limit - current - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset_at = 0
	if oldest and #oldest >= 2 then
		reset_at = tonumber(oldest[2]) + window_ms
	end
	return {0, 0, reset_at}
`)

// RedisLimiter is a sliding-window Limiter shared by every replica through
// Redis sorted sets.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
	limit     int
	window    time.Duration
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, keyPrefix string, limitPerMinute int) *RedisLimiter {
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
		limit:     limitPerMinute,
		window:    rateWindow,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (LimitResult, error) {
	now := time.Now()
	nowMs := now.UnixMilli()
	windowMs := l.window.Milliseconds()

	result, err := slidingWindowScript.Run(ctx, l.client, []string{l.keyPrefix + key},
		nowMs, nowMs-windowMs, l.limit, windowMs).Int64Slice()
	if err != nil {
		return LimitResult{}, fmt.Errorf("redis rate limit script: %w", err)
	}
	if len(result) != 3 {
		return LimitResult{}, fmt.Errorf("unexpected redis response length: %d", len(result))
	}

	res := LimitResult{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		Limit:     l.limit,
	}
	if !res.Allowed {
		res.RetryAfter = l.window
		if resetAt := result[2]; resetAt > 0 {
			res.RetryAfter = time.UnixMilli(resetAt).Sub(now)
		}
	}
	return res, nil
}

// Ping reports whether the Redis backend is reachable
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
