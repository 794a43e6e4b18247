package schedule

import (
	"time"

	"github.com/dockops/yms/core/model"
)

// Calendar partitions a warehouse's operating day into fixed-length granules
// per dock door. It is pure derived data: availability always comes from the
// current appointment set, never from stored slots.
type Calendar struct {
	cfg Config
}

// NewCalendar creates a Calendar from a validated config.
func NewCalendar(cfg Config) *Calendar {
	return &Calendar{cfg: cfg}
}

// Config returns the calendar parameters.
func (c *Calendar) Config() Config { return c.cfg }

// Granule returns the scheduling granularity as a duration.
func (c *Calendar) Granule() time.Duration {
	return time.Duration(c.cfg.GranuleMinutes) * time.Minute
}

// GranulesPerDay returns the number of granules in one operating day.
func (c *Calendar) GranulesPerDay() int {
	return (c.cfg.CloseHour - c.cfg.OpenHour) * 60 / c.cfg.GranuleMinutes
}

// DayStart returns the opening instant for the given date, normalized to UTC.
func (c *Calendar) DayStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.cfg.OpenHour, 0, 0, 0, time.UTC)
}

// GranuleStart returns the start instant of granule i on the given date.
func (c *Calendar) GranuleStart(date time.Time, i int) time.Time {
	return c.DayStart(date).Add(time.Duration(i) * c.Granule())
}

// GranuleIndex maps an instant to the granule containing it. Instants outside
// operating hours map to -1.
func (c *Calendar) GranuleIndex(date, t time.Time) int {
	start := c.DayStart(date)
	if t.Before(start) {
		return -1
	}
	i := int(t.Sub(start) / c.Granule())
	if i >= c.GranulesPerDay() {
		return -1
	}
	return i
}

// windowBounds returns the granule index range [lo, hi) matching a time-of-day
// preference. Morning runs from opening to noon, afternoon from noon to 17:00,
// evening from 17:00 to closing.
func (c *Calendar) windowBounds(w model.PreferredWindow) (int, int) {
	perHour := 60 / c.cfg.GranuleMinutes
	toIndex := func(hour int) int {
		if hour < c.cfg.OpenHour {
			hour = c.cfg.OpenHour
		}
		if hour > c.cfg.CloseHour {
			hour = c.cfg.CloseHour
		}
		return (hour - c.cfg.OpenHour) * perHour
	}
	switch w {
	case model.WindowMorning:
		return 0, toIndex(12)
	case model.WindowAfternoon:
		return toIndex(12), toIndex(17)
	case model.WindowEvening:
		return toIndex(17), c.GranulesPerDay()
	default:
		return 0, c.GranulesPerDay()
	}
}

// DockCapable reports whether a dock door satisfies the special requirements.
// Only refrigeration and hazmat constrain door choice; the remaining flags are
// informational for the crew.
func (c *Calendar) DockCapable(dock int, reqs model.SpecialRequirements) bool {
	if reqs.Refrigeration && !containsDock(c.cfg.RefrigeratedDocks, dock) {
		return false
	}
	if reqs.Hazmat && !containsDock(c.cfg.HazmatDocks, dock) {
		return false
	}
	return true
}

func containsDock(docks []int, dock int) bool {
	for _, d := range docks {
		if d == dock {
			return true
		}
	}
	return false
}
