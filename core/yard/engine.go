package yard

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dockops/yms/core/events"
	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/core/metrics"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/internal/eventbus"
)

// tractorSpeed is the assumed yard tractor speed for transit estimation.
const tractorSpeed = 2.5 // meters per second

// Trailers is the slice of the trailer tracker the engine needs to relocate
// a trailer once its move completes.
type Trailers interface {
	Get(ctx context.Context, id string) (model.Trailer, error)
	Update(ctx context.Context, t model.Trailer) error
}

// Engine owns yard moves and keeps location occupancy consistent with the
// trailers' recorded positions.
type Engine struct {
	locs     LocationStore
	moves    MoveStore
	trailers Trailers
	bus      *eventbus.Bus
	sink     metrics.MetricsSink
	log      logger.Logger
	now      func() time.Time
}

// NewEngine creates an Engine. bus and sink may be nil.
func NewEngine(locs LocationStore, moves MoveStore, trailers Trailers, bus *eventbus.Bus, sink metrics.MetricsSink, log logger.Logger) (*Engine, error) {
	if locs == nil || moves == nil || trailers == nil {
		return nil, fmt.Errorf("yard: nil store provided to NewEngine")
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{locs: locs, moves: moves, trailers: trailers, bus: bus, sink: sink, log: log, now: time.Now}, nil
}

// SetClock overrides the time source. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// RequestMove creates a relocation task for a trailer. The target location
// must exist and have free capacity at request time; capacity is checked
// again when the move executes.
func (e *Engine) RequestMove(ctx context.Context, trailerID, toLocation, reason string, priority int, operatorID string) (model.YardMove, error) {
	tr, err := e.trailers.Get(ctx, trailerID)
	if err != nil {
		return model.YardMove{}, err
	}
	dst, err := e.locs.Get(ctx, tr.WarehouseID, toLocation)
	if err != nil {
		return model.YardMove{}, err
	}
	if !dst.HasSpace() {
		return model.YardMove{}, faults.Conflict("yard location %s is at capacity", toLocation)
	}

	// Only a yard position counts as the occupancy source; a trailer coming
	// off a dock door (or entering the yard for the first time) has nothing
	// to decrement.
	from := ""
	if tr.Status == model.TrailerInYard {
		from = tr.CurrentLocation
	}

	now := e.now()
	mv := model.YardMove{
		ID:             uuid.NewString(),
		WarehouseID:    tr.WarehouseID,
		TrailerID:      tr.ID,
		FromLocation:   from,
		ToLocation:     toLocation,
		Status:         model.MovePending,
		Reason:         reason,
		Priority:       priority,
		OperatorID:     operatorID,
		RequestedTime:  now,
		ScheduledTime:  now,
		DistanceMeters: e.estimateDistance(ctx, tr.WarehouseID, from, toLocation),
	}
	if operatorID != "" {
		mv.Status = model.MoveInProgress
	}
	if err := e.moves.Insert(ctx, mv); err != nil {
		return model.YardMove{}, err
	}
	e.log.Infof("requested move %s for trailer %s to %s", mv.ID, tr.ID, toLocation)
	e.publish(events.YardMoveRequested, mv, map[string]any{
		"trailer_id": tr.ID,
		"to":         toLocation,
		"reason":     reason,
		"priority":   priority,
	})
	return mv, nil
}

// Execute runs a move to completion: occupancy transfers between locations
// and the trailer's recorded position changes as one consistent unit.
func (e *Engine) Execute(ctx context.Context, moveID, operatorID string) (model.YardMove, error) {
	mv, err := e.moves.Get(ctx, moveID)
	if err != nil {
		return model.YardMove{}, err
	}
	if mv.Status == model.MoveCompleted {
		return model.YardMove{}, faults.Conflict("move %s is already completed", moveID)
	}

	mv.Status = model.MoveInProgress
	if operatorID != "" {
		mv.OperatorID = operatorID
	}
	if err := e.moves.Update(ctx, mv); err != nil {
		return model.YardMove{}, err
	}

	if err := e.locs.Transfer(ctx, mv.WarehouseID, mv.FromLocation, mv.ToLocation); err != nil {
		// Capacity may have filled since the request; leave the move pending
		// for a later retry.
		mv.Status = model.MovePending
		if uerr := e.moves.Update(ctx, mv); uerr != nil {
			e.log.Errorf("move %s status revert failed: %v", mv.ID, uerr)
		}
		return model.YardMove{}, err
	}

	tr, err := e.trailers.Get(ctx, mv.TrailerID)
	if err == nil {
		tr.CurrentLocation = mv.ToLocation
		tr.Status = model.TrailerInYard
		tr.UpdatedAt = e.now()
		err = e.trailers.Update(ctx, tr)
	}
	if err != nil {
		// Roll the occupancy back so counters stay consistent with the
		// trailer's recorded location.
		if mv.FromLocation != "" {
			if terr := e.locs.Transfer(ctx, mv.WarehouseID, mv.ToLocation, mv.FromLocation); terr != nil {
				e.log.Errorf("move %s occupancy rollback failed: %v", mv.ID, terr)
			}
		} else if rerr := e.locs.Release(ctx, mv.WarehouseID, mv.ToLocation); rerr != nil {
			e.log.Errorf("move %s occupancy rollback failed: %v", mv.ID, rerr)
		}
		return model.YardMove{}, err
	}

	now := e.now()
	mv.Status = model.MoveCompleted
	mv.CompletedTime = now
	mv.Duration = transitDuration(mv.DistanceMeters)
	if err := e.moves.Update(ctx, mv); err != nil {
		return model.YardMove{}, err
	}

	e.recordOccupancy(ctx, mv.WarehouseID, mv.FromLocation)
	e.recordOccupancy(ctx, mv.WarehouseID, mv.ToLocation)
	e.log.Infof("completed move %s: trailer %s now at %s", mv.ID, mv.TrailerID, mv.ToLocation)
	e.publish(events.YardMoveCompleted, mv, map[string]any{
		"trailer_id": mv.TrailerID,
		"from":       mv.FromLocation,
		"to":         mv.ToLocation,
		"duration":   mv.Duration.String(),
	})
	return mv, nil
}

// GetMove loads one move.
func (e *Engine) GetMove(ctx context.Context, id string) (model.YardMove, error) {
	return e.moves.Get(ctx, id)
}

// AddLocation registers or updates a yard location.
func (e *Engine) AddLocation(ctx context.Context, l model.YardLocation) error {
	return e.locs.Upsert(ctx, l)
}

// DeactivateLocation takes a location out of service. It stays resolvable
// for historical moves but accepts no new trailers.
func (e *Engine) DeactivateLocation(ctx context.Context, warehouseID, code string) error {
	return e.locs.Deactivate(ctx, warehouseID, code)
}

// Locations lists the yard locations of a warehouse.
func (e *Engine) Locations(ctx context.Context, warehouseID string) ([]model.YardLocation, error) {
	return e.locs.List(ctx, warehouseID)
}

// estimateDistance derives a move distance from the yard grid. An unknown
// origin (gate or dock apron) uses a fixed approach distance.
func (e *Engine) estimateDistance(ctx context.Context, warehouseID, from, to string) float64 {
	dst, err := e.locs.Get(ctx, warehouseID, to)
	if err != nil {
		return 0
	}
	if from == "" {
		return 50
	}
	src, err := e.locs.Get(ctx, warehouseID, from)
	if err != nil {
		return 50
	}
	dx := float64(dst.GridX - src.GridX)
	dy := float64(dst.GridY - src.GridY)
	return (math.Abs(dx) + math.Abs(dy)) * 10
}

// transitDuration converts a distance into an estimated tractor transit time.
func transitDuration(meters float64) time.Duration {
	if meters <= 0 {
		return 30 * time.Second
	}
	d := time.Duration(meters/tractorSpeed) * time.Second
	if d < 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func (e *Engine) recordOccupancy(ctx context.Context, warehouseID, code string) {
	if code == "" {
		return
	}
	or, ok := e.sink.(metrics.OccupancyRecorder)
	if !ok {
		return
	}
	l, err := e.locs.Get(ctx, warehouseID, code)
	if err != nil {
		return
	}
	ev := metrics.OccupancyEvent{
		WarehouseID: warehouseID,
		Location:    code,
		Occupancy:   l.CurrentOccupancy,
		Capacity:    l.Capacity,
		Time:        e.now(),
	}
	if err := or.RecordOccupancy(ev); err != nil {
		e.log.Errorf("occupancy metrics error: %v", err)
	}
}

func (e *Engine) publish(t events.Type, mv model.YardMove, fields map[string]any) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(events.Event{
		Type:        t,
		WarehouseID: mv.WarehouseID,
		EntityID:    mv.ID,
		Time:        e.now(),
		Fields:      fields,
	})
}
