package notify

import (
	"context"
	"sync"

	"github.com/dockops/yms/core/events"
)

// MockNotifier records every event it is asked to deliver. Used in tests.
type MockNotifier struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockNotifier) Notify(_ context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, e)
	return nil
}

// Delivered returns a copy of the recorded events.
func (m *MockNotifier) Delivered() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.Events))
	copy(out, m.Events)
	return out
}
