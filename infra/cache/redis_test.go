package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/model"
)

func newTestCache(t *testing.T) *RedisViewCache {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := NewRedisViewCache(context.Background(), Config{Addr: srv.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisViewCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "WH1", "2026-03-01")
	require.NoError(t, err)
	assert.False(t, hit)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	slots := []model.DockScheduleSlot{
		{DockNumber: 1, Date: "2026-03-01", Start: base, End: base.Add(30 * time.Minute), Available: false, AppointmentID: "apt-1"},
		{DockNumber: 1, Date: "2026-03-01", Start: base.Add(30 * time.Minute), End: base.Add(time.Hour), Available: true},
	}
	require.NoError(t, c.Set(ctx, "WH1", "2026-03-01", slots))

	got, hit, err := c.Get(ctx, "WH1", "2026-03-01")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, slots, got)

	// Other warehouses and dates are unaffected.
	_, hit, err = c.Get(ctx, "WH2", "2026-03-01")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisViewCacheInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slots := []model.DockScheduleSlot{{DockNumber: 2, Date: "2026-03-02", Start: start, End: start.Add(30 * time.Minute), Available: true}}
	require.NoError(t, c.Set(ctx, "WH1", "2026-03-02", slots))
	require.NoError(t, c.Invalidate(ctx, "WH1", "2026-03-02"))

	_, hit, err := c.Get(ctx, "WH1", "2026-03-02")
	require.NoError(t, err)
	assert.False(t, hit)

	// Invalidating an absent key is not an error.
	require.NoError(t, c.Invalidate(ctx, "WH1", "2026-03-03"))
}

func TestRedisViewCacheTTL(t *testing.T) {
	srv := miniredis.RunT(t)
	c, err := NewRedisViewCache(context.Background(), Config{Addr: srv.Addr(), TTL: time.Minute})
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "WH1", "2026-03-04", []model.DockScheduleSlot{}))
	srv.FastForward(2 * time.Minute)

	_, hit, err := c.Get(ctx, "WH1", "2026-03-04")
	require.NoError(t, err)
	assert.False(t, hit)
}
