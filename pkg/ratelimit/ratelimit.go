// Package ratelimit provides fixed-window request limiting backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits or rejects one unit of work for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// The window starts at the first hit; the key expires with it.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {current, ttl}
`

type fixedWindow struct {
	client redis.Scripter
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
}

// New creates a Redis fixed-window limiter admitting limit hits per window per key.
func New(client redis.Scripter, prefix string, limit int, window time.Duration) Limiter {
	return &fixedWindow{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (f *fixedWindow) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := f.script.Run(ctx, f.client, []string{f.prefix + key}, f.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("rate limit %s: unexpected script result %v", key, res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > f.limit {
		return Decision{Allowed: false, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: f.limit - count}, nil
}

type unlimited struct{}

// Unlimited admits every request. Used when Redis is not configured.
func Unlimited() Limiter {
	return unlimited{}
}

func (unlimited) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}
