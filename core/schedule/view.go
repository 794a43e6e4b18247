package schedule

import (
	"context"
	"time"

	"github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/core/model"
)

// ViewCache caches computed schedule views per (warehouse, date). A cache
// failure is never fatal: the view falls back to recomputing from bookings.
type ViewCache interface {
	Get(ctx context.Context, warehouseID, date string) ([]model.DockScheduleSlot, bool, error)
	Set(ctx context.Context, warehouseID, date string, slots []model.DockScheduleSlot) error
	Invalidate(ctx context.Context, warehouseID, date string) error
}

// DateKey formats a date the way cache keys and slot views expect it.
func DateKey(date time.Time) string { return date.UTC().Format("2006-01-02") }

// View computes read-through dock schedule views.
type View struct {
	cal   *Calendar
	book  Bookings
	cache ViewCache
	log   logger.Logger
}

// NewView creates a View. cache may be nil to disable caching.
func NewView(cal *Calendar, book Bookings, cache ViewCache, log logger.Logger) *View {
	if log == nil {
		log = logger.Nop{}
	}
	return &View{cal: cal, book: book, cache: cache, log: log}
}

// Schedule returns the slot grid for the date. dock narrows the result to one
// door when positive. The full grid is cached; filtering happens after.
func (v *View) Schedule(ctx context.Context, warehouseID string, date time.Time, dock int) ([]model.DockScheduleSlot, error) {
	key := DateKey(date)
	if v.cache != nil {
		if slots, ok, err := v.cache.Get(ctx, warehouseID, key); err != nil {
			v.log.Warnf("schedule cache read failed for %s/%s: %v", warehouseID, key, err)
		} else if ok {
			return filterDock(slots, dock), nil
		}
	}
	slots, err := v.compute(ctx, warehouseID, date)
	if err != nil {
		return nil, err
	}
	if v.cache != nil {
		if err := v.cache.Set(ctx, warehouseID, key, slots); err != nil {
			v.log.Warnf("schedule cache write failed for %s/%s: %v", warehouseID, key, err)
		}
	}
	return filterDock(slots, dock), nil
}

// Invalidate drops the cached view for the date. Mutating operations call
// this synchronously before publishing their result, so a subsequent
// allocation never sees stale availability.
func (v *View) Invalidate(ctx context.Context, warehouseID string, date time.Time) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Invalidate(ctx, warehouseID, DateKey(date)); err != nil {
		v.log.Warnf("schedule cache invalidate failed for %s/%s: %v", warehouseID, DateKey(date), err)
	}
}

func (v *View) compute(ctx context.Context, warehouseID string, date time.Time) ([]model.DockScheduleSlot, error) {
	appts, err := v.book.ListByDate(ctx, warehouseID, date)
	if err != nil {
		return nil, err
	}
	total := v.cal.GranulesPerDay()
	key := DateKey(date)
	slots := make([]model.DockScheduleSlot, 0, total*v.cal.Config().Docks)
	for dock := 1; dock <= v.cal.Config().Docks; dock++ {
		for i := 0; i < total; i++ {
			gs := v.cal.GranuleStart(date, i)
			ge := gs.Add(v.cal.Granule())
			slot := model.DockScheduleSlot{
				DockNumber: dock,
				Date:       key,
				Start:      gs,
				End:        ge,
				Available:  true,
			}
			for _, ap := range appts {
				if ap.Status == model.AppointmentCancelled || ap.DockNumber != dock {
					continue
				}
				if ap.ScheduledStart.Before(ge) && gs.Before(ap.ScheduledEnd) {
					slot.Available = false
					slot.AppointmentID = ap.ID
					break
				}
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func filterDock(slots []model.DockScheduleSlot, dock int) []model.DockScheduleSlot {
	if dock <= 0 {
		return slots
	}
	out := make([]model.DockScheduleSlot, 0, len(slots))
	for _, s := range slots {
		if s.DockNumber == dock {
			out = append(out, s)
		}
	}
	return out
}
