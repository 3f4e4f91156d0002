package messaging

import "context"

// Broker publishes domain events to interested consumers. Channel names
// are event types, e.g. "appointment.created".
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
