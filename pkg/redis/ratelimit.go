package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared through Redis.
// 여러 프로세스(fetch CLI, scheduler)가 같은 Yahoo 한도를 공유한다.
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig names a shared budget of Limit requests per Window
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // 0 when allowed
}

const minRetryWait = 10 * time.Millisecond

// KEYS[1] = window set; ARGV = now_ms, window_ms, limit, member
// 거부 시 가장 오래된 요청이 창을 벗어날 때까지의 ms 를 돌려준다.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)

local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local wait = window_ms
if oldest[2] then
	wait = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, wait}
`)

// NewRateLimiter creates a limiter whose keys live under prefix
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

func (r *RateLimiter) key(cfg RateLimitConfig) string {
	return r.prefix + ":ratelimit:" + cfg.Key
}

// Allow records one request if the window has room.
// Redis 비활성 시 항상 허용.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (Decision, error) {
	if !r.client.Enabled() {
		return Decision{Allowed: true, Remaining: cfg.Limit}, nil
	}

	reply, err := slidingWindow.Run(ctx, r.client.Redis(), []string{r.key(cfg)},
		time.Now().UnixMilli(),
		cfg.Window.Milliseconds(),
		cfg.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	if len(reply) != 3 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected reply %v", cfg.Key, reply)
	}

	return Decision{
		Allowed:    reply[0] == 1,
		Remaining:  int(reply[1]),
		RetryAfter: time.Duration(reply[2]) * time.Millisecond,
	}, nil
}

// Wait blocks until Allow succeeds, sleeping for the reported RetryAfter
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		d, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if d.Allowed {
			return nil
		}

		wait := d.RetryAfter
		if wait < minRetryWait {
			wait = minRetryWait
		}
		if wait > cfg.Window {
			wait = cfg.Window
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// YahooRateLimit Yahoo Finance 공용 한도 (초당 requestsPerSecond 회)
func YahooRateLimit(requestsPerSecond int) RateLimitConfig {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return RateLimitConfig{
		Key:    "yahoo",
		Limit:  requestsPerSecond,
		Window: time.Second,
	}
}
