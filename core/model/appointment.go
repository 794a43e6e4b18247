package model

import "time"

// AppointmentStatus defines the lifecycle state of a dock appointment.
type AppointmentStatus int

const (
	AppointmentScheduled AppointmentStatus = iota
	AppointmentCheckedIn
	AppointmentInProgress
	AppointmentCompleted
	AppointmentCancelled
)

// String returns a human-readable representation of the status.
func (s AppointmentStatus) String() string {
	switch s {
	case AppointmentScheduled:
		return "scheduled"
	case AppointmentCheckedIn:
		return "checked_in"
	case AppointmentInProgress:
		return "in_progress"
	case AppointmentCompleted:
		return "completed"
	case AppointmentCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OperationType defines the kind of dock work an appointment reserves time for.
type OperationType int

const (
	OpReceiving OperationType = iota
	OpShipping
	OpBoth
)

// String returns a human-readable representation of the operation type.
func (t OperationType) String() string {
	switch t {
	case OpReceiving:
		return "receiving"
	case OpShipping:
		return "shipping"
	case OpBoth:
		return "both"
	default:
		return "unknown"
	}
}

// SpecialRequirements flags equipment or handling constraints for a visit.
type SpecialRequirements struct {
	Refrigeration bool `bson:"refrigeration" json:"refrigeration,omitempty"`
	Hazmat        bool `bson:"hazmat" json:"hazmat,omitempty"`
	Liftgate      bool `bson:"liftgate" json:"liftgate,omitempty"`
	Oversized     bool `bson:"oversized" json:"oversized,omitempty"`
	LiveUnload    bool `bson:"liveUnload" json:"live_unload,omitempty"`
	DropTrailer   bool `bson:"dropTrailer" json:"drop_trailer,omitempty"`
}

// AuditEntry records a reschedule or cancellation for later review.
type AuditEntry struct {
	Action   string    `bson:"action" json:"action"`
	Actor    string    `bson:"actor,omitempty" json:"actor,omitempty"`
	Reason   string    `bson:"reason,omitempty" json:"reason,omitempty"`
	OldDock  int       `bson:"oldDock,omitempty" json:"old_dock,omitempty"`
	OldStart time.Time `bson:"oldStart,omitempty" json:"old_start,omitempty"`
	OldEnd   time.Time `bson:"oldEnd,omitempty" json:"old_end,omitempty"`
	Time     time.Time `bson:"time" json:"time"`
}

// Appointment is a reservation of one dock door for one time window.
type Appointment struct {
	ID                string              `bson:"_id" json:"id"`
	AppointmentNumber string              `bson:"appointmentNumber" json:"appointment_number"` // date-scoped sequential, e.g. APT-20260115-0003
	WarehouseID       string              `bson:"warehouseID" json:"warehouse_id"`
	DockNumber        int                 `bson:"dockNumber" json:"dock_number"`
	ScheduledStart    time.Time           `bson:"scheduledStart" json:"scheduled_start"`
	ScheduledEnd      time.Time           `bson:"scheduledEnd" json:"scheduled_end"`
	ActualStart       time.Time           `bson:"actualStart,omitempty" json:"actual_start,omitempty"`
	ActualEnd         time.Time           `bson:"actualEnd,omitempty" json:"actual_end,omitempty"`
	Status            AppointmentStatus   `bson:"status" json:"status"`
	Operation         OperationType       `bson:"operation" json:"operation"`
	Priority          int                 `bson:"priority" json:"priority"`
	CarrierName       string              `bson:"carrierName" json:"carrier_name"`
	TrailerID         string              `bson:"trailerID,omitempty" json:"trailer_id,omitempty"`
	Requirements      SpecialRequirements `bson:"requirements" json:"requirements"`
	Audit             []AuditEntry        `bson:"audit,omitempty" json:"audit,omitempty"`
	CreatedAt         time.Time           `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updated_at"`
}

// Window returns the scheduled [start, end) interval.
func (a Appointment) Window() (time.Time, time.Time) {
	return a.ScheduledStart, a.ScheduledEnd
}

// Overlaps reports whether the scheduled windows of two appointments intersect.
// Cancelled appointments never count as occupying their window.
func (a Appointment) Overlaps(other Appointment) bool {
	if a.Status == AppointmentCancelled || other.Status == AppointmentCancelled {
		return false
	}
	return a.ScheduledStart.Before(other.ScheduledEnd) && other.ScheduledStart.Before(a.ScheduledEnd)
}

// Terminal reports whether the appointment can no longer be mutated.
func (a Appointment) Terminal() bool {
	return a.Status == AppointmentCompleted || a.Status == AppointmentCancelled
}
