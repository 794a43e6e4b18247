package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dockops/yms/core/events"
	"github.com/dockops/yms/internal/eventbus"
)

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Dispatcher drains the event bus and hands every event to a Notifier.
// Delivery happens in its own goroutine with bounded retries; a failure is
// logged and dropped, never surfaced to the code that published the event.
type Dispatcher struct {
	bus      *eventbus.Bus
	notifier events.Notifier
	log      Logger
	wg       sync.WaitGroup
}

// Logger is the minimal logging surface the dispatcher needs.
type Logger interface {
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

func NewDispatcher(bus *eventbus.Bus, n events.Notifier, log Logger) *Dispatcher {
	return &Dispatcher{bus: bus, notifier: n, log: log}
}

// Run consumes events until ctx is cancelled. It blocks; callers run it in
// a goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	sub := d.bus.Subscribe()
	defer d.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return
		case e, ok := <-sub:
			if !ok {
				d.wg.Wait()
				return
			}
			d.wg.Add(1)
			go func(e events.Event) {
				defer d.wg.Done()
				d.deliver(ctx, e)
			}(e)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e events.Event) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = d.notifier.Notify(ctx, e); err == nil {
			return
		}
		d.log.Warnf("notify %s attempt %d/%d failed: %v", e.Type, attempt, maxAttempts, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff):
		}
	}
	d.log.Errorf("dropping event %s for %s after %d attempts: %v", e.Type, e.EntityID, maxAttempts, err)
}
