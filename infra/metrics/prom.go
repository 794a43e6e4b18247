package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/dockops/yms/core/metrics"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	appointments *prometheus.CounterVec
	dwell        *prometheus.HistogramVec
	detention    *prometheus.CounterVec
	occupancy    *prometheus.GaugeVec
}

// NewPromSink registers the yard metrics on the default Prometheus
// registerer. The metrics server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	appointments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yard_appointment_events_total",
		Help: "Total number of appointment lifecycle events",
	}, []string{"warehouse_id", "action"})
	dwell := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yard_trailer_dwell_hours",
		Help:    "Trailer dwell time from check-in to check-out",
		Buckets: []float64{0.5, 1, 2, 4, 8, 12, 24, 48},
	}, []string{"warehouse_id", "operation"})
	detention := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yard_detention_charges_total",
		Help: "Accumulated detention charges reported at check-out",
	}, []string{"warehouse_id"})
	occupancy := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "yard_location_occupancy",
		Help: "Current occupancy per yard location",
	}, []string{"warehouse_id", "location"})

	if err := reg.Register(appointments); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			appointments = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(dwell); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			dwell = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(detention); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			detention = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(occupancy); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			occupancy = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{appointments: appointments, dwell: dwell, detention: detention, occupancy: occupancy}, nil
}

// RecordAppointment increments the lifecycle counter.
func (s *PromSink) RecordAppointment(ev coremetrics.AppointmentEvent) error {
	s.appointments.WithLabelValues(ev.WarehouseID, ev.Action).Inc()
	return nil
}

// RecordDwell observes the dwell histogram and accumulates detention.
func (s *PromSink) RecordDwell(rec coremetrics.DwellRecord) error {
	s.dwell.WithLabelValues(rec.WarehouseID, rec.Operation).Observe(rec.DwellHours)
	if rec.DetentionCharge > 0 {
		s.detention.WithLabelValues(rec.WarehouseID).Add(rec.DetentionCharge)
	}
	return nil
}

// RecordOccupancy sets the per-location occupancy gauge.
func (s *PromSink) RecordOccupancy(ev coremetrics.OccupancyEvent) error {
	s.occupancy.WithLabelValues(ev.WarehouseID, ev.Location).Set(float64(ev.Occupancy))
	return nil
}
