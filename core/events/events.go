// Package events defines the outbound notifications emitted by the engine.
// Each event carries the affected entity's id and the minimal fields its
// consumers need; full entities are never dumped on the bus.
package events

import "time"

// Type names the event for topic routing and consumer filtering.
type Type string

const (
	AppointmentScheduled   Type = "appointment.scheduled"
	AppointmentRescheduled Type = "appointment.rescheduled"
	AppointmentCancelled   Type = "appointment.cancelled"
	AppointmentLateArrival Type = "appointment.late_arrival"
	TrailerCheckedIn       Type = "trailer.checked_in"
	TrailerCheckedOut      Type = "trailer.checked_out"
	YardMoveRequested      Type = "yard.move.requested"
	YardMoveCompleted      Type = "yard.move.completed"
)

// Event is the envelope published on the internal bus and forwarded to the
// notification port.
type Event struct {
	Type        Type           `json:"type"`
	WarehouseID string         `json:"warehouse_id"`
	EntityID    string         `json:"entity_id"`
	Time        time.Time      `json:"time"`
	Fields      map[string]any `json:"fields,omitempty"`
}
