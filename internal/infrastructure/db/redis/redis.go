// Package redis holds the Redis client used for import idempotency. The
// in-process tenant cache and rate limiter deliberately do not go through
// here.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 5 * time.Second

// Config selects the Redis instance backing the replay guard.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds the startup ping; zero means defaultTimeout.
	Timeout time.Duration
}

// Connect opens a client and pings it so a missing or misconfigured Redis
// fails the process at startup instead of on the first bulk import.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
