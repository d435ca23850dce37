package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var slidingWindowScript = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local count = redis.call("ZCARD", KEYS[1])
local limit = tonumber(ARGV[2])
local window = tonumber(ARGV[5])
if count >= limit then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  local reset = tonumber(oldest[2]) + window
  return {0, 0, reset}
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1, limit - count - 1, tonumber(ARGV[3]) + window}
`)

// RedisSlidingWindowLimiter is a sorted-set sliding window shared across
// instances. On Redis failures it fails closed.
type RedisSlidingWindowLimiter struct {
	limit  int
	window time.Duration
	client *redis.Client
	prefix string
}

// NewRedisSlidingWindowLimiter creates a Redis-backed distributed limiter.
func NewRedisSlidingWindowLimiter(addr, password, prefix string, limit int, window time.Duration) (*RedisSlidingWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "studyhub:ratelimit"
	}
	return &RedisSlidingWindowLimiter{
		limit:  limit,
		window: window,
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}, nil
}

// Allow records a request for key and reports whether it is within quota.
func (l *RedisSlidingWindowLimiter) Allow(key string) Result {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	now := time.Now().UTC()
	nowMs := now.UnixMilli()
	windowMs := l.window.Milliseconds()
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	member := strconv.FormatInt(now.UnixNano(), 10)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey},
		nowMs-windowMs, l.limit, nowMs, member, windowMs).Int64Slice()
	if err != nil || len(res) != 3 {
		return Result{Allowed: false, Remaining: 0, ResetAt: now.Add(l.window)}
	}
	return Result{
		Allowed:   res[0] == 1,
		Remaining: int(res[1]),
		ResetAt:   time.UnixMilli(res[2]).UTC(),
	}
}
