package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockops/yms/core/events"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := New()
	defer bus.Close()
	a := bus.Subscribe()
	b := bus.Subscribe()

	bus.Publish(events.Event{Type: events.AppointmentScheduled, EntityID: "apt-1"})

	for _, sub := range []<-chan events.Event{a, b} {
		select {
		case e := <-sub:
			assert.Equal(t, "apt-1", e.EntityID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := New()
	defer bus.Close()
	_ = bus.Subscribe() // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			bus.Publish(events.Event{Type: events.TrailerCheckedIn})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	defer bus.Close()
	sub := bus.Subscribe()
	bus.Unsubscribe(sub)

	_, ok := <-sub
	assert.False(t, ok)

	// Publishing after unsubscribe must not panic.
	bus.Publish(events.Event{Type: events.TrailerCheckedOut})
}

func TestCloseIsIdempotent(t *testing.T) {
	bus := New()
	sub := bus.Subscribe()
	bus.Close()
	bus.Close()

	_, ok := <-sub
	require.False(t, ok)

	// A subscription after close comes back already closed.
	late := bus.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
	bus.Publish(events.Event{})
}
