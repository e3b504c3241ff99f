package leads

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/agency-leads/pkg/logging"
)

// slidingWindowScript prunes, counts and conditionally records in one atomic
// step. Scores are unix milliseconds.
//
// KEYS[1] window key
// ARGV[1] now ms, ARGV[2] window ms, ARGV[3] max, ARGV[4] member
// Returns {allowed, count, oldest ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisRateLimiter is a sliding window log shared by every process that
// points at the same Redis. Redis errors fail open: the limiter deters abuse
// but does not guard anything sensitive.
type RedisRateLimiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
	logger *logging.Logger
}

// NewRedisRateLimiter creates a limiter storing windows under prefix:key.
func NewRedisRateLimiter(client *redis.Client, prefix string, max int, window time.Duration, logger *logging.Logger) *RedisRateLimiter {
	if client == nil {
		panic("leads: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		max:    max,
		window: window,
		logger: logger,
	}
}

// Allow implements RateLimiter.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)
	nowMs := now.UnixMilli()
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, rl.client,
		[]string{redisKey},
		nowMs, rl.window.Milliseconds(), rl.max, member,
	).Int64Slice()
	if err != nil {
		rl.logger.Error("rate limit check failed, allowing request", "error", err, "key", redisKey)
		return Decision{Allowed: true, Limit: rl.max}, fmt.Errorf("leads: redis rate limit: %w", err)
	}
	if len(res) != 3 {
		return Decision{Allowed: true, Limit: rl.max}, fmt.Errorf("leads: redis rate limit: unexpected reply %v", res)
	}

	decision := Decision{
		Allowed: res[0] == 1,
		Count:   int(res[1]),
		Limit:   rl.max,
	}
	if !decision.Allowed {
		expires := time.UnixMilli(res[2]).Add(rl.window)
		if wait := expires.Sub(now); wait > 0 {
			decision.RetryAfter = wait
		}
	}
	return decision, nil
}
