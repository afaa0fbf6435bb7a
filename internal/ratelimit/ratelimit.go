// Package ratelimit provides a redis-backed token bucket limiter, used to
// throttle credential-guessing against the login endpoint.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds limiter settings.
type Config struct {
	// Rate is the sustained number of allowed requests per Window.
	Rate int

	// Burst is the bucket capacity. Defaults to Rate.
	Burst int

	// Window is the refill period. Defaults to one minute.
	Window time.Duration

	// KeyPrefix namespaces the redis keys.
	KeyPrefix string

	// FailOpen allows requests when redis is unavailable.
	FailOpen bool
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Rate <= 0 {
		out.Rate = 10
	}
	if out.Burst <= 0 {
		out.Burst = out.Rate
	}
	if out.Window <= 0 {
		out.Window = time.Minute
	}
	if out.KeyPrefix == "" {
		out.KeyPrefix = "ratelimit"
	}
	return out
}

// tokenBucketScript refills and consumes atomically inside redis.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local capacity = tonumber(ARGV[3])

	local tokens = tonumber(redis.call('HGET', key, 'tokens'))
	local last_refill = tonumber(redis.call('HGET', key, 'last_refill'))
	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	tokens = math.min(tokens + (now - last_refill) * rate, capacity)

	local allowed = tokens >= 1
	if allowed then
		tokens = tokens - 1
	end

	redis.call('HSET', key, 'tokens', tokens)
	redis.call('HSET', key, 'last_refill', now)
	redis.call('EXPIRE', key, math.ceil(capacity / rate * 2))

	return allowed and 1 or 0
`)

// Limiter is a redis-backed token bucket rate limiter.
type Limiter struct {
	client *redis.Client
	config Config
}

// NewLimiter creates a limiter over the given redis client.
func NewLimiter(client *redis.Client, cfg Config) *Limiter {
	return &Limiter{client: client, config: cfg.withDefaults()}
}

// Allow consumes one token for the key, reporting whether the request may
// proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	refillRate := float64(l.config.Rate) / l.config.Window.Seconds()
	redisKey := fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)

	result, err := tokenBucketScript.Run(ctx, l.client,
		[]string{redisKey},
		float64(now.Unix())+float64(now.Nanosecond())/1e9,
		refillRate,
		l.config.Burst,
	).Int64()
	if err != nil {
		if l.config.FailOpen {
			return true, nil
		}
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return result == 1, nil
}

// Reset clears the bucket for a key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("%s:%s", l.config.KeyPrefix, key)).Err()
}
