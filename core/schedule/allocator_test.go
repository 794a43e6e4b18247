package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/model"
)

type stubBookings struct {
	appts []model.Appointment
}

func (s *stubBookings) ListByDate(_ context.Context, warehouseID string, _ time.Time) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range s.appts {
		if a.WarehouseID == warehouseID {
			out = append(out, a)
		}
	}
	return out, nil
}

func testCalendar(t *testing.T) *Calendar {
	t.Helper()
	cfg := Config{Docks: 3, OpenHour: 6, CloseHour: 22, GranuleMinutes: 30, RefrigeratedDocks: []int{2}, HazmatDocks: []int{3}}
	require.NoError(t, cfg.Validate())
	return NewCalendar(cfg)
}

var testDate = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return time.Date(2026, 1, 15, hour, min, 0, 0, time.UTC)
}

func booked(dock int, start, end time.Time) model.Appointment {
	return model.Appointment{
		ID:             "apt-" + start.Format("150405"),
		WarehouseID:    "WH1",
		DockNumber:     dock,
		ScheduledStart: start,
		ScheduledEnd:   end,
		Status:         model.AppointmentScheduled,
	}
}

func TestFindSlotEmptyCalendarTakesFirstDockAtOpen(t *testing.T) {
	alloc := NewAllocator(testCalendar(t), &stubBookings{})
	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, 1, slot.DockNumber)
	assert.Equal(t, at(6, 0), slot.Start)
	assert.Equal(t, at(7, 0), slot.End)
}

func TestFindSlotSkipsBookedBlockOnSameDock(t *testing.T) {
	// Dock 1 is taken 08:00-10:00; a morning request still prefers dock 1
	// and lands directly after the booking.
	book := &stubBookings{appts: []model.Appointment{booked(1, at(8, 0), at(10, 0))}}
	cfg := Config{Docks: 1, OpenHour: 8, CloseHour: 22, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	alloc := NewAllocator(NewCalendar(cfg), book)

	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowMorning, 60, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, 1, slot.DockNumber)
	assert.Equal(t, at(10, 0), slot.Start)
	assert.Equal(t, at(11, 0), slot.End)
}

func TestFindSlotIsDeterministic(t *testing.T) {
	book := &stubBookings{appts: []model.Appointment{
		booked(1, at(6, 0), at(9, 0)),
		booked(2, at(6, 0), at(7, 30)),
	}}
	alloc := NewAllocator(testCalendar(t), book)
	first, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 90, model.SpecialRequirements{})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 90, model.SpecialRequirements{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFindSlotRoundsDurationUpToGranule(t *testing.T) {
	alloc := NewAllocator(testCalendar(t), &stubBookings{})
	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 45, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, at(6, 0), slot.Start)
	assert.Equal(t, at(7, 0), slot.End)
}

func TestFindSlotNeverSpansPastClose(t *testing.T) {
	// 16:00-22:00 day, everything before 20:00 booked. A 150-minute request
	// cannot fit in the remaining two hours.
	cfg := Config{Docks: 1, OpenHour: 16, CloseHour: 22, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	book := &stubBookings{appts: []model.Appointment{booked(1, at(16, 0), at(20, 0))}}
	alloc := NewAllocator(NewCalendar(cfg), book)

	_, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 150, model.SpecialRequirements{})
	assert.ErrorIs(t, err, ErrNoSlot)

	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 120, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, at(20, 0), slot.Start)
	assert.Equal(t, at(22, 0), slot.End)
}

func TestFindSlotHonorsWindowPreference(t *testing.T) {
	alloc := NewAllocator(testCalendar(t), &stubBookings{})

	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAfternoon, 60, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, at(12, 0), slot.Start)

	slot, err = alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowEvening, 60, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, at(17, 0), slot.Start)
}

func TestFindSlotRespectsDockCapabilities(t *testing.T) {
	alloc := NewAllocator(testCalendar(t), &stubBookings{})

	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{Refrigeration: true})
	require.NoError(t, err)
	assert.Equal(t, 2, slot.DockNumber)

	slot, err = alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{Hazmat: true})
	require.NoError(t, err)
	assert.Equal(t, 3, slot.DockNumber)

	_, err = alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{Refrigeration: true, Hazmat: true})
	assert.ErrorIs(t, err, ErrNoSlot)
}

func TestFindSlotCancelledBookingsFreeTheirBlock(t *testing.T) {
	cancelled := booked(1, at(6, 0), at(22, 0))
	cancelled.Status = model.AppointmentCancelled
	cfg := Config{Docks: 1, OpenHour: 6, CloseHour: 22, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	alloc := NewAllocator(NewCalendar(cfg), &stubBookings{appts: []model.Appointment{cancelled}})

	slot, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{})
	require.NoError(t, err)
	assert.Equal(t, at(6, 0), slot.Start)
}

func TestFindSlotExcludingIgnoresOwnBooking(t *testing.T) {
	own := booked(1, at(6, 0), at(22, 0))
	cfg := Config{Docks: 1, OpenHour: 6, CloseHour: 22, GranuleMinutes: 30}
	require.NoError(t, cfg.Validate())
	alloc := NewAllocator(NewCalendar(cfg), &stubBookings{appts: []model.Appointment{own}})

	_, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{})
	assert.ErrorIs(t, err, ErrNoSlot)

	slot, err := alloc.FindSlotExcluding(context.Background(), "WH1", testDate, model.WindowAny, 60, model.SpecialRequirements{}, own.ID)
	require.NoError(t, err)
	assert.Equal(t, at(6, 0), slot.Start)
}

func TestFindSlotRejectsNonPositiveDuration(t *testing.T) {
	alloc := NewAllocator(testCalendar(t), &stubBookings{})
	_, err := alloc.FindSlot(context.Background(), "WH1", testDate, model.WindowAny, 0, model.SpecialRequirements{})
	assert.Error(t, err)
}
