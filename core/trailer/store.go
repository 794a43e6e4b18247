package trailer

import (
	"context"
	"sort"
	"sync"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// Store persists trailer visits. A visit is logically closed at check-out,
// never deleted.
type Store interface {
	Insert(ctx context.Context, t model.Trailer) error
	Get(ctx context.Context, id string) (model.Trailer, error)
	Update(ctx context.Context, t model.Trailer) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]model.Trailer, error)
}

// MemoryStore is the in-process Store used by tests and the default wiring.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]model.Trailer
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Trailer{}}
}

func (s *MemoryStore) Insert(_ context.Context, t model.Trailer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[t.ID]; ok {
		return faults.Conflict("trailer %s already exists", t.ID)
	}
	s.data[t.ID] = t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Trailer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data[id]
	if !ok {
		return model.Trailer{}, faults.NotFound("trailer %s not found", id)
	}
	return t, nil
}

func (s *MemoryStore) Update(_ context.Context, t model.Trailer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[t.ID]; !ok {
		return faults.NotFound("trailer %s not found", t.ID)
	}
	s.data[t.ID] = t
	return nil
}

func (s *MemoryStore) ListByWarehouse(_ context.Context, warehouseID string) ([]model.Trailer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Trailer
	for _, t := range s.data {
		if t.WarehouseID == warehouseID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
