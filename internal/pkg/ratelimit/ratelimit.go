package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Result describes the state of a key's window after a hit.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts hits per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// RedisLimiter is a fixed-window limiter shared by every API instance.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// Options configures a RedisLimiter.
type Options struct {
	Addr     string
	Password string
	DB       int
	Limit    int
	Window   time.Duration
}

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(ctx context.Context, opts Options) (*RedisLimiter, error) {
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive, got %d", opts.Limit)
	}
	if opts.Window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", opts.Window)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisLimiterFromClient(client, opts.Limit, opts.Window), nil
}

// NewRedisLimiterFromClient wraps an existing client.
func NewRedisLimiterFromClient(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "erp-portal:ratelimit:",
	}
}

// Allow increments the hit counter of key's current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit pipeline failed: %w", err)
	}

	return evaluate(int(incr.Val()), l.limit, windowStart.Add(l.window).Sub(now)), nil
}

// Close releases the Redis connection pool.
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

func evaluate(count, limit int, resetIn time.Duration) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetIn:   resetIn,
	}
}
