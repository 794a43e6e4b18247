// Package cache provides the Redis implementation of the schedule view
// cache. Entries are invalidated synchronously whenever a booking for the
// warehouse/date changes, so stale reads are bounded to the TTL only when
// invalidation itself fails.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dockops/yms/core/model"
)

const defaultTTL = 5 * time.Minute

// Config defines the Redis connection for the view cache.
type Config struct {
	Enabled  bool          `json:"enabled"`
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// RedisViewCache stores schedule views keyed by warehouse and date.
type RedisViewCache struct {
	cli *redis.Client
	ttl time.Duration
}

// NewRedisViewCache connects and verifies the server is reachable.
func NewRedisViewCache(ctx context.Context, cfg Config) (*RedisViewCache, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := cli.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisViewCache{cli: cli, ttl: ttl}, nil
}

func key(warehouseID, date string) string {
	return fmt.Sprintf("yms:schedule:%s:%s", warehouseID, date)
}

// Get returns the cached view and whether it was present.
func (c *RedisViewCache) Get(ctx context.Context, warehouseID, date string) ([]model.DockScheduleSlot, bool, error) {
	raw, err := c.cli.Get(ctx, key(warehouseID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var slots []model.DockScheduleSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, false, err
	}
	return slots, true, nil
}

// Set stores the view with the configured TTL.
func (c *RedisViewCache) Set(ctx context.Context, warehouseID, date string, slots []model.DockScheduleSlot) error {
	raw, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return c.cli.Set(ctx, key(warehouseID, date), raw, c.ttl).Err()
}

// Invalidate drops the cached view for the warehouse and date.
func (c *RedisViewCache) Invalidate(ctx context.Context, warehouseID, date string) error {
	return c.cli.Del(ctx, key(warehouseID, date)).Err()
}

// Close releases the client.
func (c *RedisViewCache) Close() error {
	return c.cli.Close()
}
