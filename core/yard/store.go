package yard

import (
	"context"
	"sort"
	"sync"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// LocationStore persists yard locations and guards their occupancy counters.
// Reserve, Release and Transfer are atomic relative to each other: a check-in
// and a move targeting the same spot can never both succeed past capacity.
type LocationStore interface {
	Upsert(ctx context.Context, l model.YardLocation) error
	Get(ctx context.Context, warehouseID, code string) (model.YardLocation, error)
	List(ctx context.Context, warehouseID string) ([]model.YardLocation, error)
	// Reserve takes one unit of capacity. An empty code picks the first
	// active location (by code) with space. Returns Conflict when full.
	Reserve(ctx context.Context, warehouseID, code string) (model.YardLocation, error)
	// Release returns one unit of capacity. Occupancy never drops below zero.
	Release(ctx context.Context, warehouseID, code string) error
	// Transfer atomically moves one unit of occupancy between locations.
	// An empty from skips the decrement (first-ever placement).
	Transfer(ctx context.Context, warehouseID, from, to string) error
	Deactivate(ctx context.Context, warehouseID, code string) error
}

// MoveStore persists yard moves.
type MoveStore interface {
	Insert(ctx context.Context, m model.YardMove) error
	Get(ctx context.Context, id string) (model.YardMove, error)
	Update(ctx context.Context, m model.YardMove) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]model.YardMove, error)
}

type locKey struct{ warehouse, code string }

// MemoryLocationStore is the in-process LocationStore.
type MemoryLocationStore struct {
	mu   sync.Mutex
	data map[locKey]model.YardLocation
}

// NewMemoryLocationStore creates an empty MemoryLocationStore.
func NewMemoryLocationStore() *MemoryLocationStore {
	return &MemoryLocationStore{data: map[locKey]model.YardLocation{}}
}

func (s *MemoryLocationStore) Upsert(_ context.Context, l model.YardLocation) error {
	if l.Capacity <= 0 {
		return faults.Conflict("location %s capacity must be positive", l.Code)
	}
	if l.CurrentOccupancy < 0 || l.CurrentOccupancy > l.Capacity {
		return faults.Conflict("location %s occupancy out of bounds", l.Code)
	}
	s.mu.Lock()
	s.data[locKey{l.WarehouseID, l.Code}] = l
	s.mu.Unlock()
	return nil
}

func (s *MemoryLocationStore) Get(_ context.Context, warehouseID, code string) (model.YardLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(warehouseID, code)
}

func (s *MemoryLocationStore) get(warehouseID, code string) (model.YardLocation, error) {
	l, ok := s.data[locKey{warehouseID, code}]
	if !ok {
		return model.YardLocation{}, faults.NotFound("yard location %s not found", code)
	}
	return l, nil
}

func (s *MemoryLocationStore) List(_ context.Context, warehouseID string) ([]model.YardLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.YardLocation
	for k, l := range s.data {
		if k.warehouse == warehouseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *MemoryLocationStore) Reserve(_ context.Context, warehouseID, code string) (model.YardLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == "" {
		var codes []string
		for k := range s.data {
			if k.warehouse == warehouseID {
				codes = append(codes, k.code)
			}
		}
		sort.Strings(codes)
		for _, c := range codes {
			l := s.data[locKey{warehouseID, c}]
			if l.HasSpace() {
				code = c
				break
			}
		}
		if code == "" {
			return model.YardLocation{}, faults.Conflict("no yard capacity available in %s", warehouseID)
		}
	}
	l, err := s.get(warehouseID, code)
	if err != nil {
		return model.YardLocation{}, err
	}
	if !l.HasSpace() {
		return model.YardLocation{}, faults.Conflict("yard location %s is at capacity", code)
	}
	l.CurrentOccupancy++
	s.data[locKey{warehouseID, code}] = l
	return l, nil
}

func (s *MemoryLocationStore) Release(_ context.Context, warehouseID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.get(warehouseID, code)
	if err != nil {
		return err
	}
	if l.CurrentOccupancy == 0 {
		return faults.Conflict("yard location %s is already empty", code)
	}
	l.CurrentOccupancy--
	s.data[locKey{warehouseID, code}] = l
	return nil
}

func (s *MemoryLocationStore) Transfer(_ context.Context, warehouseID, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dst, err := s.get(warehouseID, to)
	if err != nil {
		return err
	}
	if !dst.HasSpace() {
		return faults.Conflict("yard location %s is at capacity", to)
	}
	if from != "" {
		src, err := s.get(warehouseID, from)
		if err != nil {
			return err
		}
		if src.CurrentOccupancy == 0 {
			return faults.Conflict("yard location %s is already empty", from)
		}
		src.CurrentOccupancy--
		s.data[locKey{warehouseID, from}] = src
	}
	dst.CurrentOccupancy++
	s.data[locKey{warehouseID, to}] = dst
	return nil
}

func (s *MemoryLocationStore) Deactivate(_ context.Context, warehouseID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.get(warehouseID, code)
	if err != nil {
		return err
	}
	l.Active = false
	s.data[locKey{warehouseID, code}] = l
	return nil
}

// MemoryMoveStore is the in-process MoveStore.
type MemoryMoveStore struct {
	mu   sync.RWMutex
	data map[string]model.YardMove
}

// NewMemoryMoveStore creates an empty MemoryMoveStore.
func NewMemoryMoveStore() *MemoryMoveStore {
	return &MemoryMoveStore{data: map[string]model.YardMove{}}
}

func (s *MemoryMoveStore) Insert(_ context.Context, m model.YardMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[m.ID]; ok {
		return faults.Conflict("move %s already exists", m.ID)
	}
	s.data[m.ID] = m
	return nil
}

func (s *MemoryMoveStore) Get(_ context.Context, id string) (model.YardMove, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[id]
	if !ok {
		return model.YardMove{}, faults.NotFound("move %s not found", id)
	}
	return m, nil
}

func (s *MemoryMoveStore) Update(_ context.Context, m model.YardMove) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[m.ID]; !ok {
		return faults.NotFound("move %s not found", m.ID)
	}
	s.data[m.ID] = m
	return nil
}

func (s *MemoryMoveStore) ListByWarehouse(_ context.Context, warehouseID string) ([]model.YardMove, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.YardMove
	for _, m := range s.data {
		if m.WarehouseID == warehouseID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedTime.Before(out[j].RequestedTime) })
	return out, nil
}
