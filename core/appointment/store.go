package appointment

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dockops/yms/core/faults"
	"github.com/dockops/yms/core/model"
)

// Store persists appointments. Rows are never deleted; cancellation only
// flips the status so the history stays available for analytics and audit.
type Store interface {
	Insert(ctx context.Context, a model.Appointment) error
	Get(ctx context.Context, id string) (model.Appointment, error)
	Update(ctx context.Context, a model.Appointment) error
	// ListByDate returns all appointments whose scheduled start falls on the
	// given UTC date, cancelled ones included.
	ListByDate(ctx context.Context, warehouseID string, date time.Time) ([]model.Appointment, error)
	// MaxSequence returns the highest numeric suffix among appointment
	// numbers carrying the date's prefix, or zero when none exist.
	// Appointment numbers are immutable, so the result only ever grows.
	MaxSequence(ctx context.Context, warehouseID string, date time.Time) (int, error)
}

// NumberPrefix returns the appointment-number prefix for a date,
// e.g. "APT-20260115-".
func NumberPrefix(date time.Time) string {
	return "APT-" + date.UTC().Format("20060102") + "-"
}

// MemoryStore is the in-process Store used by tests and the default wiring.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]model.Appointment
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Appointment{}}
}

func (s *MemoryStore) Insert(_ context.Context, a model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[a.ID]; ok {
		return faults.Conflict("appointment %s already exists", a.ID)
	}
	s.data[a.ID] = a
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.data[id]
	if !ok {
		return model.Appointment{}, faults.NotFound("appointment %s not found", id)
	}
	return a, nil
}

func (s *MemoryStore) Update(_ context.Context, a model.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[a.ID]; !ok {
		return faults.NotFound("appointment %s not found", a.ID)
	}
	s.data[a.ID] = a
	return nil
}

func (s *MemoryStore) ListByDate(_ context.Context, warehouseID string, date time.Time) ([]model.Appointment, error) {
	y, m, d := date.UTC().Date()
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.data {
		ay, am, ad := a.ScheduledStart.UTC().Date()
		if a.WarehouseID == warehouseID && ay == y && am == m && ad == d {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppointmentNumber < out[j].AppointmentNumber })
	return out, nil
}

func (s *MemoryStore) MaxSequence(_ context.Context, warehouseID string, date time.Time) (int, error) {
	prefix := NumberPrefix(date)
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, a := range s.data {
		if a.WarehouseID != warehouseID || !strings.HasPrefix(a.AppointmentNumber, prefix) {
			continue
		}
		if n, err := strconv.Atoi(a.AppointmentNumber[len(prefix):]); err == nil && n > max {
			max = n
		}
	}
	return max, nil
}
