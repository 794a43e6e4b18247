package analytics

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/schedule"
)

// Appointments, Trailers and Locations are the read-only slices of the other
// components the aggregator consumes. It never mutates anything.
type Appointments interface {
	ListByDate(ctx context.Context, warehouseID string, date time.Time) ([]model.Appointment, error)
}

type Trailers interface {
	ListByWarehouse(ctx context.Context, warehouseID string) ([]model.Trailer, error)
}

type Locations interface {
	List(ctx context.Context, warehouseID string) ([]model.YardLocation, error)
}

// Config carries the analytics tuning knobs.
type Config struct {
	// OnTimeGraceMinutes is the window around the scheduled start within
	// which an actual start still counts as on time.
	OnTimeGraceMinutes int `json:"on_time_grace_minutes"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.OnTimeGraceMinutes == 0 {
		c.OnTimeGraceMinutes = 15
	}
}

// Snapshot is a point-in-time aggregate over the current operating day.
type Snapshot struct {
	WarehouseID         string             `json:"warehouse_id"`
	Time                time.Time          `json:"time"`
	TrailersByStatus    map[string]int     `json:"trailers_by_status"`
	TrailersByOperation map[string]int     `json:"trailers_by_operation"`
	DockUtilization     float64            `json:"dock_utilization"`
	YardUtilization     float64            `json:"yard_utilization"`
	AvgDwellHours       float64            `json:"avg_dwell_hours"`
	AvgDwellByOperation map[string]float64 `json:"avg_dwell_by_operation"`
	OnTimeRate          float64            `json:"on_time_rate"`
	AppointmentsToday   int                `json:"appointments_today"`
	CompletedToday      int                `json:"completed_today"`
	CancelledToday      int                `json:"cancelled_today"`
	// Partial marks a best-effort snapshot where a source read failed and a
	// section is missing.
	Partial bool `json:"partial,omitempty"`
}

// Aggregator computes snapshots. Any single source failure degrades the
// snapshot to a partial report instead of aborting it.
type Aggregator struct {
	cfg      Config
	cal      *schedule.Calendar
	appts    Appointments
	trailers Trailers
	locs     Locations
	log      logger.Logger
	now      func() time.Time
}

// NewAggregator creates an Aggregator.
func NewAggregator(cfg Config, cal *schedule.Calendar, appts Appointments, trailers Trailers, locs Locations, log logger.Logger) (*Aggregator, error) {
	if cal == nil || appts == nil || trailers == nil || locs == nil {
		return nil, fmt.Errorf("analytics: nil dependency provided to NewAggregator")
	}
	cfg.SetDefaults()
	if log == nil {
		log = logger.Nop{}
	}
	return &Aggregator{cfg: cfg, cal: cal, appts: appts, trailers: trailers, locs: locs, log: log, now: time.Now}, nil
}

// SetClock overrides the time source. Intended for tests.
func (a *Aggregator) SetClock(now func() time.Time) { a.now = now }

// Snapshot aggregates the current operating day for one warehouse.
func (a *Aggregator) Snapshot(ctx context.Context, warehouseID string) (Snapshot, error) {
	now := a.now()
	snap := Snapshot{
		WarehouseID:         warehouseID,
		Time:                now,
		TrailersByStatus:    map[string]int{},
		TrailersByOperation: map[string]int{},
		AvgDwellByOperation: map[string]float64{},
	}

	grace := time.Duration(a.cfg.OnTimeGraceMinutes) * time.Minute
	if appts, err := a.appts.ListByDate(ctx, warehouseID, now); err != nil {
		a.log.Warnf("snapshot: appointment read failed, degrading: %v", err)
		snap.Partial = true
	} else {
		occupiedDocks := map[int]bool{}
		onTime, started := 0, 0
		for _, ap := range appts {
			snap.AppointmentsToday++
			switch ap.Status {
			case model.AppointmentCompleted:
				snap.CompletedToday++
			case model.AppointmentCancelled:
				snap.CancelledToday++
			case model.AppointmentCheckedIn, model.AppointmentInProgress:
				occupiedDocks[ap.DockNumber] = true
			}
			if !ap.ActualStart.IsZero() {
				started++
				if !ap.ActualStart.After(ap.ScheduledStart.Add(grace)) {
					onTime++
				}
			}
		}
		if total := a.cal.Config().Docks; total > 0 {
			snap.DockUtilization = float64(len(occupiedDocks)) / float64(total)
		}
		if started > 0 {
			snap.OnTimeRate = float64(onTime) / float64(started)
		}
	}

	if trailers, err := a.trailers.ListByWarehouse(ctx, warehouseID); err != nil {
		a.log.Warnf("snapshot: trailer read failed, degrading: %v", err)
		snap.Partial = true
	} else {
		var all []float64
		byOp := map[string][]float64{}
		for _, tr := range trailers {
			snap.TrailersByStatus[tr.Status.String()]++
			snap.TrailersByOperation[tr.Operation.String()]++
			if d := tr.DwellHours(); d > 0 {
				all = append(all, d)
				byOp[tr.Operation.String()] = append(byOp[tr.Operation.String()], d)
			}
		}
		if len(all) > 0 {
			snap.AvgDwellHours = stat.Mean(all, nil)
		}
		for op, ds := range byOp {
			snap.AvgDwellByOperation[op] = stat.Mean(ds, nil)
		}
	}

	if locs, err := a.locs.List(ctx, warehouseID); err != nil {
		a.log.Warnf("snapshot: yard location read failed, degrading: %v", err)
		snap.Partial = true
	} else {
		occupied, capacity := 0, 0
		for _, l := range locs {
			if !l.Active {
				continue
			}
			occupied += l.CurrentOccupancy
			capacity += l.Capacity
		}
		if capacity > 0 {
			snap.YardUtilization = float64(occupied) / float64(capacity)
		}
	}

	return snap, nil
}
