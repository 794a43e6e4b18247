package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// ErrNoSlot is returned when no contiguous block satisfies a request. It is a
// Conflict: callers are expected to retry with different parameters.
var ErrNoSlot = faults.Conflict("no available slot")

// Bookings lists the appointments occupying dock time on a given date.
// The appointment store satisfies this interface.
type Bookings interface {
	ListByDate(ctx context.Context, warehouseID string, date time.Time) ([]model.Appointment, error)
}

// Allocator searches the dock calendar for a contiguous, available block on a
// single dock. Given identical calendar state and request it always returns
// the same dock and time: lowest dock id first, earliest block on that dock.
type Allocator struct {
	cal  *Calendar
	book Bookings
}

// NewAllocator creates an Allocator over the given calendar and bookings.
func NewAllocator(cal *Calendar, book Bookings) *Allocator {
	return &Allocator{cal: cal, book: book}
}

// FindSlot returns the earliest qualifying block for the request, or ErrNoSlot.
// Durations that are not a multiple of the granule round up to the next
// boundary. Blocks that would span past closing are never proposed.
func (a *Allocator) FindSlot(ctx context.Context, warehouseID string, date time.Time, pref model.PreferredWindow, durationMin int, reqs model.SpecialRequirements) (model.Slot, error) {
	return a.FindSlotExcluding(ctx, warehouseID, date, pref, durationMin, reqs, "")
}

// FindSlotExcluding searches like FindSlot but ignores the appointment with
// the given id, so a reschedule does not collide with its own current block.
func (a *Allocator) FindSlotExcluding(ctx context.Context, warehouseID string, date time.Time, pref model.PreferredWindow, durationMin int, reqs model.SpecialRequirements, excludeID string) (model.Slot, error) {
	if durationMin <= 0 {
		return model.Slot{}, errors.New("duration must be positive")
	}
	granuleMin := a.cal.Config().GranuleMinutes
	needed := (durationMin + granuleMin - 1) / granuleMin
	total := a.cal.GranulesPerDay()
	if needed > total {
		return model.Slot{}, ErrNoSlot
	}

	occupied, err := a.occupiedGranules(ctx, warehouseID, date, excludeID)
	if err != nil {
		return model.Slot{}, err
	}

	lo, hi := a.cal.windowBounds(pref)
	for dock := 1; dock <= a.cal.Config().Docks; dock++ {
		if !a.cal.DockCapable(dock, reqs) {
			continue
		}
		run := 0
		for i := lo; i < hi; i++ {
			if occupied[dock][i] {
				run = 0
				continue
			}
			run++
			if run == needed {
				start := a.cal.GranuleStart(date, i-needed+1)
				return model.Slot{
					DockNumber: dock,
					Start:      start,
					End:        start.Add(time.Duration(needed*granuleMin) * time.Minute),
				}, nil
			}
		}
	}
	return model.Slot{}, ErrNoSlot
}

// occupiedGranules marks every granule overlapped by a non-cancelled
// appointment on the date.
func (a *Allocator) occupiedGranules(ctx context.Context, warehouseID string, date time.Time, excludeID string) (map[int]map[int]bool, error) {
	appts, err := a.book.ListByDate(ctx, warehouseID, date)
	if err != nil {
		return nil, err
	}
	occ := make(map[int]map[int]bool)
	total := a.cal.GranulesPerDay()
	for _, ap := range appts {
		if ap.Status == model.AppointmentCancelled || (excludeID != "" && ap.ID == excludeID) {
			continue
		}
		if occ[ap.DockNumber] == nil {
			occ[ap.DockNumber] = make(map[int]bool, total)
		}
		for i := 0; i < total; i++ {
			gs := a.cal.GranuleStart(date, i)
			ge := gs.Add(a.cal.Granule())
			if ap.ScheduledStart.Before(ge) && gs.Before(ap.ScheduledEnd) {
				occ[ap.DockNumber][i] = true
			}
		}
	}
	return occ, nil
}
