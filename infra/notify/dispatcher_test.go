package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/events"
	corelogger "github.com/dockops/yms/core/logger"
	"github.com/dockops/yms/internal/eventbus"
)

func TestDispatcherDeliversPublishedEvents(t *testing.T) {
	bus := eventbus.New()
	defer bus.Close()
	mock := &MockNotifier{}
	d := NewDispatcher(bus, mock, corelogger.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// Subscriber registration races with Publish, give Run a beat to attach.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(events.Event{Type: events.TrailerCheckedIn, WarehouseID: "WH1", EntityID: "TR-1"})

	require.Eventually(t, func() bool {
		return len(mock.Delivered()) == 1
	}, 2*time.Second, 20*time.Millisecond)
	got := mock.Delivered()[0]
	assert.Equal(t, events.TrailerCheckedIn, got.Type)
	assert.Equal(t, "WH1", got.WarehouseID)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop on context cancel")
	}
}
