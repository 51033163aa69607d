// Package redis builds the shared Redis client used for push signatures
// and activity metrics.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/trendwatch/internal/config"
)

const connectionTimeout = 2 * time.Second

// NewClient creates a Redis client from configuration and verifies the
// connection before returning it.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}
	return client, nil
}

// clientOptions accepts both a bare host:port and a redis:// URL. Explicit
// password and db settings override whatever the URL carries.
func clientOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if strings.Contains(cfg.URL, "://") {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		if cfg.Password != "" {
			opts.Password = cfg.Password
		}
		if cfg.DB != 0 {
			opts.DB = cfg.DB
		}
		return opts, nil
	}

	return &redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// CheckConnection tests if Redis is reachable
func CheckConnection(ctx context.Context, client redis.UniversalClient) (bool, error) {
	if client == nil {
		return false, errors.New("redis client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return false, err
	}
	return true, nil
}
