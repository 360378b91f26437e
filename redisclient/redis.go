// Package redisclient wraps the optional Redis connection used to
// share the sheets access token and bundle ETags across gateway
// replicas. Redis is never required: every caller treats a nil/failed
// client as "cache miss, fall back to the authoritative source".
package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zeventbooks/eventgateway/config"
)

const (
	tokenKey      = "sheets:access_token"
	tokenExpiry   = "sheets:access_token:expiry"
	bundleKeyBase = "bundle:etag:"
)

// Client wraps a *redis.Client with the gateway's cache helpers.
type Client struct {
	c *redis.Client
}

// New creates a Redis client from the provided config. Returns an
// error if the Redis URL cannot be parsed; callers should treat that
// as "run without the shared cache", not as fatal.
func New(cfg *config.Config) (*Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return &Client{c: redis.NewClient(opt)}, nil
}

// Ping checks connectivity with a 2s timeout.
func (r *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.c.Ping(ctx).Err()
}

// GetToken implements sheetsauth.RedisCache: returns the shared token
// and its expiry epoch (unix seconds), or ok=false on a miss.
func (r *Client) GetToken(ctx context.Context) (string, int64, bool) {
	pipe := r.c.Pipeline()
	tokenCmd := pipe.Get(ctx, tokenKey)
	expiryCmd := pipe.Get(ctx, tokenExpiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", 0, false
	}
	token, err := tokenCmd.Result()
	if err != nil || token == "" {
		return "", 0, false
	}
	expiryStr, err := expiryCmd.Result()
	if err != nil {
		return "", 0, false
	}
	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return token, expiry, true
}

// SetToken implements sheetsauth.RedisCache: publishes the freshly
// minted token for other replicas to observe, with the given ttl.
func (r *Client) SetToken(ctx context.Context, token string, expiryEpoch int64, ttl time.Duration) error {
	pipe := r.c.Pipeline()
	pipe.Set(ctx, tokenKey, token, ttl)
	pipe.Set(ctx, tokenExpiry, strconv.FormatInt(expiryEpoch, 10), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetBundleETag returns the last-known ETag for a bundle cache key
// (surface+eventId), or ok=false on a miss.
func (r *Client) GetBundleETag(ctx context.Context, key string) (string, bool) {
	v, err := r.c.Get(ctx, bundleKeyBase+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// SetBundleETag records the current ETag for a bundle cache key, so a
// future request's If-None-Match can be satisfied without recomputing
// the projection when nothing changed.
func (r *Client) SetBundleETag(ctx context.Context, key, etag string, ttl time.Duration) error {
	return r.c.Set(ctx, bundleKeyBase+key, etag, ttl).Err()
}
