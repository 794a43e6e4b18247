package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/infra/logger"
)

// InfluxSink writes yard events to an InfluxDB instance using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so a down Influx never blocks startup.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

// RecordAppointment writes the lifecycle event as a point.
func (s *InfluxSink) RecordAppointment(ev coremetrics.AppointmentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("appointment_event").
		AddTag("warehouse_id", ev.WarehouseID).
		AddTag("action", ev.Action).
		AddTag("dock", strconv.Itoa(ev.Dock)).
		AddField("appointment_id", ev.AppointmentID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDwell writes the visit outcome as a point.
func (s *InfluxSink) RecordDwell(rec coremetrics.DwellRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("trailer_dwell").
		AddTag("warehouse_id", rec.WarehouseID).
		AddTag("operation", rec.Operation).
		AddField("trailer_id", rec.TrailerID).
		AddField("dwell_hours", rec.DwellHours).
		AddField("detention_charge", rec.DetentionCharge).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOccupancy writes the location fill level as a point.
func (s *InfluxSink) RecordOccupancy(ev coremetrics.OccupancyEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("yard_occupancy").
		AddTag("warehouse_id", ev.WarehouseID).
		AddTag("location", ev.Location).
		AddField("occupancy", ev.Occupancy).
		AddField("capacity", ev.Capacity).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}
