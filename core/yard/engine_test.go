package yard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
	"github.com/dockops/yms/core/trailer"
)

func gridLoc(code string, capacity, occupancy, x, y int) model.YardLocation {
	l := loc(code, capacity, occupancy)
	l.GridX = x
	l.GridY = y
	return l
}

func newTestEngine(t *testing.T, locs ...model.YardLocation) (*Engine, *trailer.MemoryStore, *MemoryLocationStore) {
	t.Helper()
	locStore := newLocStore(t, locs...)
	trailers := trailer.NewMemoryStore()
	e, err := NewEngine(locStore, NewMemoryMoveStore(), trailers, nil, nil, nil)
	require.NoError(t, err)
	e.SetClock(func() time.Time { return time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC) })
	return e, trailers, locStore
}

func yardTrailer(id, location string) model.Trailer {
	tr := model.Trailer{
		ID:          id,
		WarehouseID: "WH1",
		PlateNumber: "TX-" + id,
		Status:      model.TrailerInYard,
	}
	if location != "" {
		tr.CurrentLocation = location
	} else {
		tr.Status = model.TrailerAtDock
		tr.CurrentLocation = "dock-1"
	}
	return tr
}

func TestRequestMoveFromYardLocation(t *testing.T) {
	e, trailers, _ := newTestEngine(t, gridLoc("Y-01", 1, 1, 0, 0), gridLoc("Y-02", 1, 0, 4, 3))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "Y-01")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-02", "staging for door 4", 1, "")
	require.NoError(t, err)
	assert.Equal(t, model.MovePending, mv.Status)
	assert.Equal(t, "Y-01", mv.FromLocation)
	assert.Equal(t, "Y-02", mv.ToLocation)
	// Manhattan distance (4+3) cells at 10m each.
	assert.InDelta(t, 70, mv.DistanceMeters, 1e-9)
}

func TestRequestMoveFromDockHasNoSource(t *testing.T) {
	e, trailers, _ := newTestEngine(t, gridLoc("Y-01", 1, 0, 2, 2))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "")
	require.NoError(t, err)
	assert.Empty(t, mv.FromLocation)
	assert.InDelta(t, 50, mv.DistanceMeters, 1e-9)
}

func TestRequestMoveWithOperatorStartsInProgress(t *testing.T) {
	e, trailers, _ := newTestEngine(t, gridLoc("Y-01", 1, 0, 0, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "op-7")
	require.NoError(t, err)
	assert.Equal(t, model.MoveInProgress, mv.Status)
	assert.Equal(t, "op-7", mv.OperatorID)
}

func TestRequestMoveToFullLocationConflicts(t *testing.T) {
	e, trailers, _ := newTestEngine(t, gridLoc("Y-01", 1, 1, 0, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	_, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "")
	assert.ErrorIs(t, err, faults.ErrConflict)
}

func TestRequestMoveUnknownTrailerIsNotFound(t *testing.T) {
	e, _, _ := newTestEngine(t, gridLoc("Y-01", 1, 0, 0, 0))
	_, err := e.RequestMove(context.Background(), "missing", "Y-01", "", 0, "")
	assert.ErrorIs(t, err, faults.ErrNotFound)
}

func TestExecuteTransfersOccupancyAndRelocatesTrailer(t *testing.T) {
	e, trailers, locs := newTestEngine(t, gridLoc("Y-01", 1, 1, 0, 0), gridLoc("Y-02", 1, 0, 10, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "Y-01")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-02", "", 0, "")
	require.NoError(t, err)
	done, err := e.Execute(context.Background(), mv.ID, "op-1")
	require.NoError(t, err)
	assert.Equal(t, model.MoveCompleted, done.Status)
	assert.False(t, done.CompletedTime.IsZero())
	// 100m at 2.5 m/s is 40 seconds.
	assert.Equal(t, 40*time.Second, done.Duration)

	src, _ := locs.Get(context.Background(), "WH1", "Y-01")
	dst, _ := locs.Get(context.Background(), "WH1", "Y-02")
	assert.Equal(t, 0, src.CurrentOccupancy)
	assert.Equal(t, 1, dst.CurrentOccupancy)

	tr, err := trailers.Get(context.Background(), "trl-1")
	require.NoError(t, err)
	assert.Equal(t, "Y-02", tr.CurrentLocation)
	assert.Equal(t, model.TrailerInYard, tr.Status)
}

func TestExecuteDockOriginOnlyIncrementsDestination(t *testing.T) {
	e, trailers, locs := newTestEngine(t, gridLoc("Y-01", 2, 0, 0, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "")
	require.NoError(t, err)
	done, err := e.Execute(context.Background(), mv.ID, "")
	require.NoError(t, err)
	// Short approach distances floor at the minimum transit time.
	assert.Equal(t, 30*time.Second, done.Duration)

	l, _ := locs.Get(context.Background(), "WH1", "Y-01")
	assert.Equal(t, 1, l.CurrentOccupancy)
}

func TestExecuteCompletedMoveIsConflict(t *testing.T) {
	e, trailers, _ := newTestEngine(t, gridLoc("Y-01", 1, 0, 0, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "")
	require.NoError(t, err)
	_, err = e.Execute(context.Background(), mv.ID, "")
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), mv.ID, "")
	assert.ErrorIs(t, err, faults.ErrConflict)
}

func TestExecuteCapacityFilledSinceRequestLeavesMovePending(t *testing.T) {
	e, trailers, locs := newTestEngine(t, gridLoc("Y-01", 1, 0, 0, 0))
	require.NoError(t, trailers.Insert(context.Background(), yardTrailer("trl-1", "")))

	mv, err := e.RequestMove(context.Background(), "trl-1", "Y-01", "", 0, "")
	require.NoError(t, err)

	// Someone else takes the spot between request and execution.
	_, err = locs.Reserve(context.Background(), "WH1", "Y-01")
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), mv.ID, "")
	assert.ErrorIs(t, err, faults.ErrConflict)

	kept, err := e.GetMove(context.Background(), mv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovePending, kept.Status)
}
