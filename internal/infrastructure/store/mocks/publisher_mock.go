package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-order-sync/internal/event"
)

// RecordingPublisher is an event.Publisher that records every envelope
// for assertions instead of writing to the bus.
type RecordingPublisher struct {
	mu        sync.Mutex
	envelopes []event.Envelope

	PublishErr error // returned by Publish when set
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, env event.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.PublishErr != nil {
		return p.PublishErr
	}
	p.envelopes = append(p.envelopes, env)
	return nil
}

// Envelopes returns a copy of everything published so far.
func (p *RecordingPublisher) Envelopes() []event.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Envelope, len(p.envelopes))
	copy(out, p.envelopes)
	return out
}

// ByType filters published envelopes by event type.
func (p *RecordingPublisher) ByType(eventType string) []event.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []event.Envelope
	for _, env := range p.envelopes {
		if env.EventType == eventType {
			out = append(out, env)
		}
	}
	return out
}

// Reset drops recorded envelopes.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = nil
}
