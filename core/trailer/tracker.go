package trailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dockops/yms/core/events"
	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/internal/eventbus"
)

// Appointments is the slice of the appointment lifecycle the tracker needs.
type Appointments interface {
	Get(ctx context.Context, id string) (model.Appointment, error)
	MarkCheckedIn(ctx context.Context, id string, at time.Time, trailerID string) (model.Appointment, error)
	MarkCompleted(ctx context.Context, id string, at time.Time) (model.Appointment, error)
}

// YardPlacer reserves and releases yard parking capacity. The yard engine's
// location store implements it; reservations are atomic against concurrent
// moves targeting the same spot.
type YardPlacer interface {
	// Reserve takes one unit of capacity. An empty code picks the first
	// active location with space. Returns Conflict when nothing has space.
	Reserve(ctx context.Context, warehouseID, code string) (model.YardLocation, error)
	Release(ctx context.Context, warehouseID, code string) error
}

// CheckInRequest describes an arriving trailer.
type CheckInRequest struct {
	WarehouseID   string
	PlateNumber   string
	CarrierName   string
	DriverName    string
	DriverPhone   string
	AppointmentID string
	Operation     model.OperationType
	// YardLocation optionally pins the parking spot for walk-in trailers.
	YardLocation string
}

// CheckInResult is returned to the caller after a successful check-in.
type CheckInResult struct {
	Trailer          model.Trailer
	Appointment      *model.Appointment
	AssignedLocation string
	IsLate           bool
	DelayMinutes     int
}

// CheckOutResult carries the dwell and detention outcome of a visit. The
// detention charge is informational output for billing, not persisted here.
type CheckOutResult struct {
	Trailer         model.Trailer
	DwellTimeHours  float64
	DetentionCharge float64
}

// Tracker owns trailer visits from gate check-in to departure.
type Tracker struct {
	cfg    Config
	store  Store
	appts  Appointments
	placer YardPlacer
	bus    *eventbus.Bus
	sink   metrics.MetricsSink
	log    logger.Logger
	now    func() time.Time
}

// NewTracker creates a Tracker. appts, placer, bus and sink may be nil when
// the corresponding feature is unused.
func NewTracker(cfg Config, store Store, appts Appointments, placer YardPlacer, bus *eventbus.Bus, sink metrics.MetricsSink, log logger.Logger) (*Tracker, error) {
	if store == nil {
		return nil, fmt.Errorf("trailer: nil store")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Tracker{cfg: cfg, store: store, appts: appts, placer: placer, bus: bus, sink: sink, log: log, now: time.Now}, nil
}

// SetClock overrides the time source. Intended for tests.
func (t *Tracker) SetClock(now func() time.Time) { t.now = now }

// CheckIn records a trailer arrival. With an appointment the trailer goes to
// its dock and the appointment moves to checked_in; without one the trailer
// is parked in the yard, consuming location capacity.
func (t *Tracker) CheckIn(ctx context.Context, req CheckInRequest) (CheckInResult, error) {
	if req.WarehouseID == "" || req.PlateNumber == "" {
		return CheckInResult{}, fmt.Errorf("warehouse id and plate number are required")
	}
	now := t.now()
	id := uuid.NewString()

	var (
		appt     *model.Appointment
		isLate   bool
		delayMin int
	)
	if req.AppointmentID != "" {
		if t.appts == nil {
			return CheckInResult{}, fmt.Errorf("trailer: appointment lookup not configured")
		}
		loaded, err := t.appts.Get(ctx, req.AppointmentID)
		if err != nil {
			return CheckInResult{}, err
		}
		if now.After(loaded.ScheduledStart) {
			isLate = true
			delayMin = int(now.Sub(loaded.ScheduledStart).Minutes())
		}
		updated, err := t.appts.MarkCheckedIn(ctx, req.AppointmentID, now, id)
		if err != nil {
			return CheckInResult{}, err
		}
		appt = &updated
	}

	tr := model.Trailer{
		ID:            id,
		WarehouseID:   req.WarehouseID,
		PlateNumber:   req.PlateNumber,
		CarrierName:   req.CarrierName,
		DriverName:    req.DriverName,
		DriverPhone:   req.DriverPhone,
		AppointmentID: req.AppointmentID,
		Operation:     req.Operation,
		CheckInTime:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if appt != nil {
		tr.Status = model.TrailerAtDock
		tr.CurrentLocation = fmt.Sprintf("dock-%d", appt.DockNumber)
	} else {
		if t.placer == nil {
			return CheckInResult{}, fmt.Errorf("trailer: yard placement not configured")
		}
		loc, err := t.placer.Reserve(ctx, req.WarehouseID, req.YardLocation)
		if err != nil {
			return CheckInResult{}, err
		}
		tr.Status = model.TrailerInYard
		tr.CurrentLocation = loc.Code
	}
	if err := t.store.Insert(ctx, tr); err != nil {
		// Undo the capacity reservation so occupancy stays consistent.
		if tr.Status == model.TrailerInYard && t.placer != nil {
			if rerr := t.placer.Release(ctx, req.WarehouseID, tr.CurrentLocation); rerr != nil {
				t.log.Errorf("release after failed check-in: %v", rerr)
			}
		}
		return CheckInResult{}, err
	}

	t.log.Infof("checked in trailer %s (%s) at %s", tr.PlateNumber, tr.ID, tr.CurrentLocation)
	t.publish(events.TrailerCheckedIn, tr.WarehouseID, tr.ID, map[string]any{
		"plate":    tr.PlateNumber,
		"location": tr.CurrentLocation,
		"status":   tr.Status.String(),
	})
	if isLate && delayMin > t.cfg.LateAlertMinutes && appt != nil {
		t.log.Warnf("late arrival for %s: %d minutes", appt.AppointmentNumber, delayMin)
		t.publish(events.AppointmentLateArrival, tr.WarehouseID, appt.ID, map[string]any{
			"appointment_number": appt.AppointmentNumber,
			"delay_minutes":      delayMin,
			"trailer_id":         tr.ID,
		})
	}
	return CheckInResult{
		Trailer:          tr,
		Appointment:      appt,
		AssignedLocation: tr.CurrentLocation,
		IsLate:           isLate,
		DelayMinutes:     delayMin,
	}, nil
}

// CheckOut closes a trailer visit, computes dwell time and the detention
// charge, frees any yard capacity and completes the linked appointment.
// Checking out a trailer with no recorded check-in is a precondition
// violation.
func (t *Tracker) CheckOut(ctx context.Context, trailerID, actor, notes string) (CheckOutResult, error) {
	tr, err := t.store.Get(ctx, trailerID)
	if err != nil {
		return CheckOutResult{}, err
	}
	if tr.Status == model.TrailerDeparted {
		return CheckOutResult{}, faults.Conflict("trailer %s already departed", trailerID)
	}
	if tr.CheckInTime.IsZero() {
		return CheckOutResult{}, faults.PreconditionFailed("trailer %s has no recorded check-in", trailerID)
	}

	now := t.now()
	dwellHours := now.Sub(tr.CheckInTime).Hours()
	detention := 0.0
	if over := dwellHours - t.cfg.DetentionFreeHours; over > 0 {
		detention = over * t.cfg.DetentionHourlyRate
	}

	prev := tr
	prevLocation := tr.CurrentLocation
	tr.Status = model.TrailerDeparted
	tr.CheckOutTime = now
	tr.CurrentLocation = ""
	tr.UpdatedAt = now
	if err := t.store.Update(ctx, tr); err != nil {
		return CheckOutResult{}, err
	}
	// The yard spot is freed only after the departure is recorded; on a
	// release failure the departure is rolled back so occupancy never
	// disagrees with the trailer's stored location.
	if prev.Status == model.TrailerInYard && t.placer != nil {
		if err := t.placer.Release(ctx, prev.WarehouseID, prevLocation); err != nil {
			if rerr := t.store.Update(ctx, prev); rerr != nil {
				t.log.Errorf("restore trailer after failed release: %v", rerr)
			}
			return CheckOutResult{}, err
		}
	}

	if tr.AppointmentID != "" && t.appts != nil {
		if _, err := t.appts.MarkCompleted(ctx, tr.AppointmentID, now); err != nil {
			// A cancellation after check-in leaves nothing to complete.
			if errors.Is(err, faults.ErrConflict) {
				t.log.Warnf("appointment %s not completed at check-out: %v", tr.AppointmentID, err)
			} else {
				return CheckOutResult{}, err
			}
		}
	}

	t.log.Infof("checked out trailer %s after %.2fh (detention %.2f) by %s", tr.PlateNumber, dwellHours, detention, actor)
	rec := metrics.DwellRecord{
		WarehouseID:     tr.WarehouseID,
		TrailerID:       tr.ID,
		Operation:       tr.Operation.String(),
		DwellHours:      dwellHours,
		DetentionCharge: detention,
		Time:            now,
	}
	if dr, ok := t.sink.(metrics.DwellRecorder); ok {
		if err := dr.RecordDwell(rec); err != nil {
			t.log.Errorf("dwell metrics error: %v", err)
		}
	}
	t.publish(events.TrailerCheckedOut, tr.WarehouseID, tr.ID, map[string]any{
		"plate":            tr.PlateNumber,
		"dwell_hours":      dwellHours,
		"detention_charge": detention,
		"left_location":    prevLocation,
		"notes":            notes,
	})
	return CheckOutResult{Trailer: tr, DwellTimeHours: dwellHours, DetentionCharge: detention}, nil
}

// Get loads one trailer visit.
func (t *Tracker) Get(ctx context.Context, id string) (model.Trailer, error) {
	return t.store.Get(ctx, id)
}

func (t *Tracker) publish(typ events.Type, warehouseID, entityID string, fields map[string]any) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(events.Event{
		Type:        typ,
		WarehouseID: warehouseID,
		EntityID:    entityID,
		Time:        t.now(),
		Fields:      fields,
	})
}
