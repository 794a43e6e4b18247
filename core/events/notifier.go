package events

import "context"

// Notifier is the outbound notification port. Implementations (MQTT, mocks)
// live under infra/notify; the engine itself only ever publishes to the bus
// and never talks to a concrete protocol client.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}
