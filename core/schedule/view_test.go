package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/model"
)

type fakeCache struct {
	data   map[string][]model.DockScheduleSlot
	gets   int
	sets   int
	dels   int
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]model.DockScheduleSlot{}}
}

func (c *fakeCache) Get(_ context.Context, warehouseID, date string) ([]model.DockScheduleSlot, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	slots, ok := c.data[warehouseID+"|"+date]
	return slots, ok, nil
}

func (c *fakeCache) Set(_ context.Context, warehouseID, date string, slots []model.DockScheduleSlot) error {
	c.sets++
	c.data[warehouseID+"|"+date] = slots
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, warehouseID, date string) error {
	c.dels++
	delete(c.data, warehouseID+"|"+date)
	return nil
}

func TestViewComputesFullGrid(t *testing.T) {
	cfg := Config{Docks: 2, OpenHour: 8, CloseHour: 10, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	cal := NewCalendar(cfg)
	book := &stubBookings{appts: []model.Appointment{booked(1, at(8, 0), at(9, 0))}}
	v := NewView(cal, book, nil, nil)

	slots, err := v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)
	// 2 docks x 4 granules
	require.Len(t, slots, 8)

	var unavailable int
	for _, s := range slots {
		if !s.Available {
			unavailable++
			assert.Equal(t, 1, s.DockNumber)
			assert.NotEmpty(t, s.AppointmentID)
		}
	}
	assert.Equal(t, 2, unavailable)
}

func TestViewFiltersByDock(t *testing.T) {
	cfg := Config{Docks: 2, OpenHour: 8, CloseHour: 10, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	v := NewView(NewCalendar(cfg), &stubBookings{}, nil, nil)

	slots, err := v.Schedule(context.Background(), "WH1", testDate, 2)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	for _, s := range slots {
		assert.Equal(t, 2, s.DockNumber)
	}
}

func TestViewReadsThroughCache(t *testing.T) {
	cfg := Config{Docks: 1, OpenHour: 8, CloseHour: 10, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	cache := newFakeCache()
	v := NewView(NewCalendar(cfg), &stubBookings{}, cache, nil)

	_, err := v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	_, err = v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)
	// Second read was served from the cache, nothing was recomputed.
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 2, cache.gets)
}

func TestViewInvalidateForcesRecompute(t *testing.T) {
	cfg := Config{Docks: 1, OpenHour: 8, CloseHour: 10, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	cache := newFakeCache()
	book := &stubBookings{}
	v := NewView(NewCalendar(cfg), book, cache, nil)

	_, err := v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)

	book.appts = append(book.appts, booked(1, at(8, 0), at(8, 30)))
	v.Invalidate(context.Background(), "WH1", testDate)
	assert.Equal(t, 1, cache.dels)

	slots, err := v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)
	assert.False(t, slots[0].Available)
}

func TestViewCacheFailureFallsBackToCompute(t *testing.T) {
	cfg := Config{Docks: 1, OpenHour: 8, CloseHour: 10, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	cache := newFakeCache()
	cache.getErr = assert.AnError
	v := NewView(NewCalendar(cfg), &stubBookings{}, cache, nil)

	slots, err := v.Schedule(context.Background(), "WH1", testDate, 0)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestDateKey(t *testing.T) {
	moment := time.Date(2026, 1, 15, 23, 30, 0, 0, time.FixedZone("plus2", 2*3600))
	assert.Equal(t, "2026-01-15", DateKey(moment))
}
