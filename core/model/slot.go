package model

import "time"

// Slot is a reserved or proposed (dock, start, end) interval.
type Slot struct {
	DockNumber int       `json:"dock_number"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// DockScheduleSlot is one granule of a dock's day, derived on demand from the
// non-cancelled appointments. It is never persisted.
type DockScheduleSlot struct {
	DockNumber    int       `json:"dock_number"`
	Date          string    `json:"date"` // YYYY-MM-DD
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Available     bool      `json:"available"`
	AppointmentID string    `json:"appointment_id,omitempty"`
}

// PreferredWindow narrows a slot search to a part of the operating day.
type PreferredWindow int

const (
	WindowAny PreferredWindow = iota
	WindowMorning
	WindowAfternoon
	WindowEvening
)

// String returns a human-readable representation of the window.
func (w PreferredWindow) String() string {
	switch w {
	case WindowAny:
		return "any"
	case WindowMorning:
		return "morning"
	case WindowAfternoon:
		return "afternoon"
	case WindowEvening:
		return "evening"
	default:
		return "unknown"
	}
}

// WindowFromString parses a preference name. Unknown values map to WindowAny.
func WindowFromString(s string) PreferredWindow {
	switch s {
	case "morning":
		return WindowMorning
	case "afternoon":
		return WindowAfternoon
	case "evening":
		return WindowEvening
	default:
		return WindowAny
	}
}
