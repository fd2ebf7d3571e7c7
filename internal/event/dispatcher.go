package event

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Handler processes a single envelope. Returning an error means the
// delivery must not be acknowledged; expected business outcomes are
// represented as emitted events, never as errors.
type Handler func(ctx context.Context, env Envelope) error

// Dispatcher routes envelopes to handlers by event type. Several
// consumer groups share each topic, so every group registers only the
// types it owns; everything else falls through to the fallback, which
// acknowledges and discards by default.
type Dispatcher struct {
	handlers map[string]Handler
	fallback Handler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
	d.fallback = func(ctx context.Context, env Envelope) error {
		d.logger.Debug("ignoring unhandled event",
			zap.String("event_type", env.EventType),
			zap.String("event_id", env.EventID))
		return nil
	}
	return d
}

// On registers a handler for an event type.
func (d *Dispatcher) On(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// Fallback replaces the default acknowledge-and-discard handler.
func (d *Dispatcher) Fallback(h Handler) {
	d.fallback = h
}

// Dispatch routes one envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope) error {
	if h, ok := d.handlers[env.EventType]; ok {
		return h(ctx, env)
	}
	return d.fallback(ctx, env)
}

// HandleMessage adapts the dispatcher to the bus consumer callback.
// A value that does not parse as an envelope is malformed and is
// acknowledged away rather than redelivered forever.
func (d *Dispatcher) HandleMessage(ctx context.Context, key, value []byte) error {
	var env Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		d.logger.Warn("discarding malformed message",
			zap.String("key", string(key)), zap.Error(err))
		return nil
	}
	if err := d.Dispatch(ctx, env); err != nil {
		return fmt.Errorf("dispatch %s (%s): %w", env.EventType, env.EventID, err)
	}
	return nil
}
