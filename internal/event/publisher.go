package event

import "context"

// Publisher is the write side of the bus. Implementations must preserve
// ordering among envelopes sharing an aggregate id within a topic.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}
