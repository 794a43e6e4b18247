package metrics

import coremetrics "github.com/dockops/yms/core/metrics"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAppointment forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAppointment(ev coremetrics.AppointmentEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordAppointment(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordDwell forwards the record to sinks implementing DwellRecorder.
func (m *MultiSink) RecordDwell(rec coremetrics.DwellRecord) error {
	for _, s := range m.Sinks {
		if dr, ok := s.(coremetrics.DwellRecorder); ok {
			if err := dr.RecordDwell(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOccupancy forwards the event to sinks implementing OccupancyRecorder.
func (m *MultiSink) RecordOccupancy(ev coremetrics.OccupancyEvent) error {
	for _, s := range m.Sinks {
		if or, ok := s.(coremetrics.OccupancyRecorder); ok {
			if err := or.RecordOccupancy(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
