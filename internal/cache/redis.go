package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mehmetcanozen/minilink-sub001/internal/config"
)

// Client wraps Redis as an expiring keyed store. It backs both the
// short-code pool and the replenishment job queue.
type Client struct {
	Client *redis.Client
}

// NewClient creates a new Redis client and verifies connectivity.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Set stores a value with a per-key TTL. A zero ttl means no expiry.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get retrieves a value. The second return reports whether the key existed.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Delete removes a key and returns how many keys were actually removed.
// A return of 0 with a nil error means the key was already gone.
func (c *Client) Delete(ctx context.Context, key string) (int64, error) {
	return c.Client.Del(ctx, key).Result()
}

// ScanKeys returns all keys matching the given prefix. Uses SCAN rather
// than KEYS so it never blocks the server on large keyspaces.
func (c *Client) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.Client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// IncrBy atomically adjusts an integer counter key by n (n may be
// negative) and returns the new value. The key is created at n if absent.
func (c *Client) IncrBy(ctx context.Context, key string, n int64) (int64, error) {
	return c.Client.IncrBy(ctx, key, n).Result()
}

// Close closes the Redis client.
func (c *Client) Close() error {
	return c.Client.Close()
}
