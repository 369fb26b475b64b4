package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/redis/go-redis/v9"
)

// Client is a go-redis client whose keys all live under one namespace
type Client struct {
	rdb    *redis.Client
	prefix string
}

// NewClient dials Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	return &Client{rdb: rdb, prefix: cfg.KeyPrefix}, nil
}

// Wrap adopts an existing go-redis client with the given key prefix
func Wrap(rdb *redis.Client, prefix string) *Client {
	return &Client{rdb: rdb, prefix: prefix}
}

// key joins parts under the client's namespace, e.g. "onboarding:session:alice-1"
func (c *Client) key(parts ...string) string {
	return c.prefix + strings.Join(parts, ":")
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
