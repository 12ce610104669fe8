// Package cache stores per-workspace analytics snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "analytics:tasks:"

// AnalyticsCache is safe to use with a nil client; every call then misses
// and writes are dropped.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache returns a cache over client. A ttl of zero disables it.
func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

// Enabled reports whether lookups can hit.
func (c *AnalyticsCache) Enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Get decodes the cached snapshot of adminID into dest. It reports false on
// a miss.
func (c *AnalyticsCache) Get(ctx context.Context, adminID string, dest any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key(adminID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("analytics cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// a stale encoding is treated as a miss and overwritten on the next Set
		return false, nil
	}
	return true, nil
}

// Set stores the snapshot of adminID for the configured ttl.
func (c *AnalyticsCache) Set(ctx context.Context, adminID string, value any) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("analytics cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key(adminID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("analytics cache set: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot of adminID.
func (c *AnalyticsCache) Invalidate(ctx context.Context, adminID string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key(adminID)).Err(); err != nil {
		return fmt.Errorf("analytics cache invalidate: %w", err)
	}
	return nil
}

func key(adminID string) string {
	return keyPrefix + adminID
}
