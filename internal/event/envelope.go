package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps every message on the bus with immutable metadata.
// AggregateID doubles as the ordering key when the envelope is published.
type Envelope struct {
	EventID       string          `json:"eventId"`
	EventType     string          `json:"eventType"`
	AggregateID   string          `json:"aggregateId"`
	AggregateType string          `json:"aggregateType"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlationId,omitempty"`
	CausationID   string          `json:"causationId,omitempty"`
	Source        string          `json:"source"`
	Data          json.RawMessage `json:"data"`
}

// New builds an envelope around a payload with a fresh event id.
func New(eventType, aggregateID, aggregateType, source string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Timestamp:     time.Now(),
		Version:       1,
		Source:        source,
		Data:          data,
	}, nil
}

// Correlated returns a copy carrying the given correlation id.
func (e Envelope) Correlated(correlationID string) Envelope {
	e.CorrelationID = correlationID
	return e
}

// CausedBy returns a copy linked to the parent envelope: the parent's
// event id becomes the causation id and its correlation id is propagated
// (falling back to the parent's event id when the parent started the chain).
func (e Envelope) CausedBy(parent Envelope) Envelope {
	e.CausationID = parent.EventID
	e.CorrelationID = parent.CorrelationID
	if e.CorrelationID == "" {
		e.CorrelationID = parent.EventID
	}
	return e
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](e Envelope) (T, error) {
	var payload T
	err := json.Unmarshal(e.Data, &payload)
	return payload, err
}
