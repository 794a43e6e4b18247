package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dockops/yms/core/events"
	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/schedule"
	"github.com/dockops/yms/internal/eventbus"
)

// ScheduleRequest describes a new appointment to book.
type ScheduleRequest struct {
	WarehouseID     string
	Date            time.Time
	Window          model.PreferredWindow
	Operation       model.OperationType
	DurationMinutes int
	Priority        int
	CarrierName     string
	Requirements    model.SpecialRequirements
}

// Manager owns the appointment lifecycle. All allocation for one
// (warehouse, date) pair is serialized through a striped lock so two
// concurrent requests can never observe the same open granules.
type Manager struct {
	alloc *schedule.Allocator
	store Store
	view  *schedule.View
	bus   *eventbus.Bus
	log   logger.Logger
	sink  metrics.MetricsSink
	now   func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a Manager. view, bus and sink may be nil.
func NewManager(alloc *schedule.Allocator, store Store, view *schedule.View, bus *eventbus.Bus, sink metrics.MetricsSink, log logger.Logger) (*Manager, error) {
	if alloc == nil || store == nil {
		return nil, fmt.Errorf("appointment: nil allocator or store")
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Manager{
		alloc: alloc,
		store: store,
		view:  view,
		bus:   bus,
		log:   log,
		sink:  sink,
		now:   time.Now,
		locks: map[string]*sync.Mutex{},
	}, nil
}

// SetClock overrides the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// dateLock returns the mutex serializing allocation for one warehouse/date.
func (m *Manager) dateLock(warehouseID string, date time.Time) *sync.Mutex {
	key := warehouseID + "|" + schedule.DateKey(date)
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// Schedule books a new appointment. It returns a Conflict when no slot is
// available for the requested parameters.
func (m *Manager) Schedule(ctx context.Context, req ScheduleRequest) (model.Appointment, error) {
	if req.WarehouseID == "" {
		return model.Appointment{}, fmt.Errorf("warehouse id is required")
	}
	if req.DurationMinutes <= 0 {
		return model.Appointment{}, fmt.Errorf("duration must be positive")
	}

	lock := m.dateLock(req.WarehouseID, req.Date)
	lock.Lock()
	defer lock.Unlock()

	slot, err := m.alloc.FindSlot(ctx, req.WarehouseID, req.Date, req.Window, req.DurationMinutes, req.Requirements)
	if err != nil {
		return model.Appointment{}, err
	}
	number, err := m.nextNumber(ctx, req.WarehouseID, req.Date)
	if err != nil {
		return model.Appointment{}, err
	}

	now := m.now()
	appt := model.Appointment{
		ID:                uuid.NewString(),
		AppointmentNumber: number,
		WarehouseID:       req.WarehouseID,
		DockNumber:        slot.DockNumber,
		ScheduledStart:    slot.Start,
		ScheduledEnd:      slot.End,
		Status:            model.AppointmentScheduled,
		Operation:         req.Operation,
		Priority:          req.Priority,
		CarrierName:       req.CarrierName,
		Requirements:      req.Requirements,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := m.store.Insert(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	m.invalidate(ctx, req.WarehouseID, slot.Start)
	m.log.Infof("scheduled %s on dock %d at %s", appt.AppointmentNumber, appt.DockNumber, slot.Start.Format(time.RFC3339))
	m.record(appt, "scheduled")
	m.publish(events.AppointmentScheduled, appt, map[string]any{
		"appointment_number": appt.AppointmentNumber,
		"dock":               appt.DockNumber,
		"start":              appt.ScheduledStart,
		"end":                appt.ScheduledEnd,
	})
	return appt, nil
}

// Reschedule re-runs allocation for a new date and atomically swaps the dock
// and window. Only scheduled appointments can move; on allocation failure the
// original appointment is left untouched.
func (m *Manager) Reschedule(ctx context.Context, id string, newDate time.Time, window model.PreferredWindow, reason, actor string) (model.Appointment, error) {
	appt, unlock, err := m.lockPair(ctx, id, newDate)
	if err != nil {
		return model.Appointment{}, err
	}
	defer unlock()
	if appt.Status != model.AppointmentScheduled {
		return model.Appointment{}, faults.Conflict("appointment %s is %s and cannot be rescheduled", appt.AppointmentNumber, appt.Status)
	}

	oldDate := appt.ScheduledStart
	duration := int(appt.ScheduledEnd.Sub(appt.ScheduledStart).Minutes())
	slot, err := m.alloc.FindSlotExcluding(ctx, appt.WarehouseID, newDate, window, duration, appt.Requirements, appt.ID)
	if err != nil {
		return model.Appointment{}, err
	}

	now := m.now()
	appt.Audit = append(appt.Audit, model.AuditEntry{
		Action:   "reschedule",
		Actor:    actor,
		Reason:   reason,
		OldDock:  appt.DockNumber,
		OldStart: appt.ScheduledStart,
		OldEnd:   appt.ScheduledEnd,
		Time:     now,
	})
	appt.DockNumber = slot.DockNumber
	appt.ScheduledStart = slot.Start
	appt.ScheduledEnd = slot.End
	appt.UpdatedAt = now
	if err := m.store.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	m.invalidate(ctx, appt.WarehouseID, oldDate)
	m.invalidate(ctx, appt.WarehouseID, slot.Start)
	m.log.Infof("rescheduled %s to dock %d at %s", appt.AppointmentNumber, appt.DockNumber, slot.Start.Format(time.RFC3339))
	m.record(appt, "rescheduled")
	m.publish(events.AppointmentRescheduled, appt, map[string]any{
		"appointment_number": appt.AppointmentNumber,
		"dock":               appt.DockNumber,
		"start":              appt.ScheduledStart,
		"end":                appt.ScheduledEnd,
		"reason":             reason,
	})
	return appt, nil
}

// Cancel marks an appointment cancelled. The row is retained for analytics
// and audit. In-progress and completed appointments cannot be cancelled.
func (m *Manager) Cancel(ctx context.Context, id, reason, actor string) (model.Appointment, error) {
	appt, unlock, err := m.lockDated(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	defer unlock()
	if !CanTransition(appt.Status, model.AppointmentCancelled) {
		return model.Appointment{}, faults.Conflict("appointment %s is %s and cannot be cancelled", appt.AppointmentNumber, appt.Status)
	}

	now := m.now()
	appt.Status = model.AppointmentCancelled
	appt.Audit = append(appt.Audit, model.AuditEntry{Action: "cancel", Actor: actor, Reason: reason, Time: now})
	appt.UpdatedAt = now
	if err := m.store.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	m.invalidate(ctx, appt.WarehouseID, appt.ScheduledStart)
	m.log.Infof("cancelled %s (%s)", appt.AppointmentNumber, reason)
	m.record(appt, "cancelled")
	m.publish(events.AppointmentCancelled, appt, map[string]any{
		"appointment_number": appt.AppointmentNumber,
		"reason":             reason,
		"actor":              actor,
	})
	return appt, nil
}

// Get loads one appointment.
func (m *Manager) Get(ctx context.Context, id string) (model.Appointment, error) {
	return m.store.Get(ctx, id)
}

// MarkCheckedIn moves the appointment to checked_in and records the actual
// start time. Called by the trailer tracker.
func (m *Manager) MarkCheckedIn(ctx context.Context, id string, at time.Time, trailerID string) (model.Appointment, error) {
	appt, unlock, err := m.lockDated(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	defer unlock()
	if !CanTransition(appt.Status, model.AppointmentCheckedIn) {
		return model.Appointment{}, faults.Conflict("appointment %s is %s and cannot be checked in", appt.AppointmentNumber, appt.Status)
	}
	appt.Status = model.AppointmentCheckedIn
	appt.ActualStart = at
	appt.TrailerID = trailerID
	appt.UpdatedAt = m.now()
	if err := m.store.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	m.record(appt, "checked_in")
	return appt, nil
}

// MarkCompleted closes the appointment with the actual end time. A checked_in
// appointment passes through in_progress implicitly: unloading that was never
// separately started still ends in a consistent terminal state.
func (m *Manager) MarkCompleted(ctx context.Context, id string, at time.Time) (model.Appointment, error) {
	appt, unlock, err := m.lockDated(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	defer unlock()
	if appt.Status == model.AppointmentCheckedIn {
		appt.Status = model.AppointmentInProgress
	}
	if !CanTransition(appt.Status, model.AppointmentCompleted) {
		return model.Appointment{}, faults.Conflict("appointment %s is %s and cannot be completed", appt.AppointmentNumber, appt.Status)
	}
	appt.Status = model.AppointmentCompleted
	appt.ActualEnd = at
	appt.UpdatedAt = m.now()
	if err := m.store.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	m.record(appt, "completed")
	return appt, nil
}

// Start moves a checked_in appointment to in_progress when the dock crew
// begins working the trailer.
func (m *Manager) Start(ctx context.Context, id string) (model.Appointment, error) {
	appt, unlock, err := m.lockDated(ctx, id)
	if err != nil {
		return model.Appointment{}, err
	}
	defer unlock()
	if !CanTransition(appt.Status, model.AppointmentInProgress) {
		return model.Appointment{}, faults.Conflict("appointment %s is %s and cannot start", appt.AppointmentNumber, appt.Status)
	}
	appt.Status = model.AppointmentInProgress
	appt.UpdatedAt = m.now()
	if err := m.store.Update(ctx, appt); err != nil {
		return model.Appointment{}, err
	}
	return appt, nil
}

// nextNumber generates the date-scoped sequential appointment number, e.g.
// APT-20260115-0003. The sequence is the highest suffix ever issued for the
// date plus one, so a row rescheduled away (or cancelled) never frees its
// number for reuse. Callers must hold the date lock.
func (m *Manager) nextNumber(ctx context.Context, warehouseID string, date time.Time) (string, error) {
	seq, err := m.store.MaxSequence(ctx, warehouseID, date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", NumberPrefix(date), seq+1), nil
}

// lockDated acquires the appointment's date lock and returns a fresh copy
// read under it, so status checks and writes cannot race a concurrent
// transition. A reschedule can move the row to another date between the
// initial read and the lock; the acquisition retries until the locked date
// matches the row. The caller must call unlock.
func (m *Manager) lockDated(ctx context.Context, id string) (model.Appointment, func(), error) {
	for {
		appt, err := m.store.Get(ctx, id)
		if err != nil {
			return model.Appointment{}, nil, err
		}
		lock := m.dateLock(appt.WarehouseID, appt.ScheduledStart)
		lock.Lock()
		cur, err := m.store.Get(ctx, id)
		if err != nil {
			lock.Unlock()
			return model.Appointment{}, nil, err
		}
		if schedule.DateKey(cur.ScheduledStart) == schedule.DateKey(appt.ScheduledStart) {
			return cur, lock.Unlock, nil
		}
		lock.Unlock()
	}
}

// lockPair is lockDated holding both the appointment's current date lock and
// the lock for other, as a reschedule spans two days.
func (m *Manager) lockPair(ctx context.Context, id string, other time.Time) (model.Appointment, func(), error) {
	for {
		appt, err := m.store.Get(ctx, id)
		if err != nil {
			return model.Appointment{}, nil, err
		}
		locks := m.orderedLocks(appt.WarehouseID, appt.ScheduledStart, other)
		for _, l := range locks {
			l.Lock()
		}
		unlock := func() {
			for i := len(locks) - 1; i >= 0; i-- {
				locks[i].Unlock()
			}
		}
		cur, err := m.store.Get(ctx, id)
		if err != nil {
			unlock()
			return model.Appointment{}, nil, err
		}
		if schedule.DateKey(cur.ScheduledStart) == schedule.DateKey(appt.ScheduledStart) {
			return cur, unlock, nil
		}
		unlock()
	}
}

// orderedLocks returns the date locks for the given dates in a stable order
// so concurrent reschedules cannot deadlock. Same-date reschedules take a
// single lock.
func (m *Manager) orderedLocks(warehouseID string, a, b time.Time) []*sync.Mutex {
	ka, kb := schedule.DateKey(a), schedule.DateKey(b)
	if ka == kb {
		return []*sync.Mutex{m.dateLock(warehouseID, a)}
	}
	if ka < kb {
		return []*sync.Mutex{m.dateLock(warehouseID, a), m.dateLock(warehouseID, b)}
	}
	return []*sync.Mutex{m.dateLock(warehouseID, b), m.dateLock(warehouseID, a)}
}

func (m *Manager) invalidate(ctx context.Context, warehouseID string, date time.Time) {
	if m.view != nil {
		m.view.Invalidate(ctx, warehouseID, date)
	}
}

func (m *Manager) publish(t events.Type, appt model.Appointment, fields map[string]any) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.Event{
		Type:        t,
		WarehouseID: appt.WarehouseID,
		EntityID:    appt.ID,
		Time:        m.now(),
		Fields:      fields,
	})
}

func (m *Manager) record(appt model.Appointment, action string) {
	ev := metrics.AppointmentEvent{
		WarehouseID:   appt.WarehouseID,
		AppointmentID: appt.ID,
		Action:        action,
		Dock:          appt.DockNumber,
		Time:          m.now(),
	}
	if err := m.sink.RecordAppointment(ev); err != nil {
		m.log.Errorf("appointment metrics error: %v", err)
	}
}
