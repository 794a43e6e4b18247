// Package metrics defines the observability interfaces the engine records
// into. Implementations (Prometheus, InfluxDB, fan-out) live under
// infra/metrics.
package metrics

import "time"

// AppointmentEvent represents one appointment lifecycle transition.
type AppointmentEvent struct {
	WarehouseID   string
	AppointmentID string
	Action        string // scheduled, rescheduled, cancelled, checked_in, completed
	Dock          int
	Time          time.Time
}

// DwellRecord captures the outcome of one trailer visit at check-out.
type DwellRecord struct {
	WarehouseID     string
	TrailerID       string
	Operation       string
	DwellHours      float64
	DetentionCharge float64
	Time            time.Time
}

// OccupancyEvent is a snapshot of one yard location's fill level.
type OccupancyEvent struct {
	WarehouseID string
	Location    string
	Occupancy   int
	Capacity    int
	Time        time.Time
}

// MetricsSink records appointment lifecycle events for observability.
type MetricsSink interface {
	RecordAppointment(ev AppointmentEvent) error
}

// DwellRecorder records trailer dwell outcomes. Optional on a sink.
type DwellRecorder interface {
	RecordDwell(rec DwellRecord) error
}

// OccupancyRecorder records yard occupancy snapshots. Optional on a sink.
type OccupancyRecorder interface {
	RecordOccupancy(ev OccupancyEvent) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordAppointment(AppointmentEvent) error { return nil }
func (NopSink) RecordDwell(DwellRecord) error            { return nil }
func (NopSink) RecordOccupancy(OccupancyEvent) error     { return nil }
