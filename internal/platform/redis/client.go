package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tagd/internal/platform/config"
)

// Client wraps the go-redis client behind the permission backend, adding a
// Health probe for the readiness endpoint.
type Client struct {
	*redis.Client
}

// New dials redis from the provided configuration and verifies the
// connection with a ping. An empty URL means no redis permission backend is
// configured; New then returns nil, nil and the server falls back to the
// static grants oracle alone.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether the permission backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Client.Close()
}
