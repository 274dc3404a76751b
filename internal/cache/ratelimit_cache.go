package cache

import (
	"context"
	"fmt"
	"time"

	"codeinterview/internal/clock"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitCache counts requests per key in a sliding window stored in Redis
type RateLimitCache interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

// admit keeps one sorted-set member per admitted request, scored by its
// arrival in unix millis. Rejected requests are not recorded, so a caller
// hammering the endpoint cannot push its own window forward. The reply is
// {allowed, remaining, reset_at_ms}.
var admit = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
	local used = redis.call('ZCARD', key)

	if used >= limit then
		local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
		if oldest[2] then
			return {0, 0, tonumber(oldest[2]) + window}
		end
		return {0, 0, now + window}
	end

	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - used - 1, now + window}
`)

type rateLimitCache struct {
	client    redis.Scripter
	keyPrefix string
	clock     clock.Clock
	newMember func() string
}

// NewRateLimitCache creates a new Redis backed rate limiter
func NewRateLimitCache(client redis.Scripter, keyPrefix string, clk clock.Clock) RateLimitCache {
	return &rateLimitCache{
		client:    client,
		keyPrefix: keyPrefix,
		clock:     clk,
		newMember: uuid.NewString,
	}
}

func (c *rateLimitCache) Allow(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	now := c.clock.Now().UnixMilli()

	reply, err := admit.Run(ctx, c.client, []string{c.keyPrefix + key},
		now, window.Milliseconds(), limit, c.newMember()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("unexpected rate limit response length: %d", len(reply))
	}

	return &RateLimitResult{
		Allowed:   reply[0] == 1,
		Remaining: int(reply[1]),
		ResetAt:   time.UnixMilli(reply[2]),
		Limit:     limit,
	}, nil
}
