package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a Redis-backed key-value cache holding JSON snapshots with a
// TTL. It is never the system of record.
type Client struct {
	rdb    *redis.Client
	logger *log.Logger
}

// New constructs a cache client.
func New(addr, password string, db int, logger *log.Logger) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Client{rdb: rdb, logger: logger}
}

// Ping tests the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache: nil client")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Set stores a JSON snapshot of value under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache: nil client")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// Get loads the snapshot under key into dest. Returns false when the key is
// absent or expired.
func (c *Client) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.rdb == nil {
		return false, errors.New("cache: nil client")
	}
	data, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		if c.logger != nil {
			c.logger.Printf("cache: bad snapshot for %s: %v", key, err)
		}
		return false, err
	}
	return true, nil
}

// Delete removes a key.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache: nil client")
	}
	return c.rdb.Del(ctx, key).Err()
}
