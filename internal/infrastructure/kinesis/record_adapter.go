package kinesis

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/example/ec-order-sync/internal/event"
)

// ConvertFromKinesisRecord decodes one Kinesis record into an event
// envelope. Records carry the bus envelope JSON verbatim; the Kinesis
// partition key mirrors the aggregate id, so per-aggregate ordering
// survives the relay.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*event.Envelope, error) {
	var env event.Envelope
	if err := json.Unmarshal(record.Kinesis.Data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}

	if env.EventID == "" || env.AggregateID == "" || env.EventType == "" {
		return nil, fmt.Errorf("missing required fields: eventId=%s, aggregateId=%s, eventType=%s",
			env.EventID, env.AggregateID, env.EventType)
	}

	return &env, nil
}

// BatchConvertFromKinesisEvent converts every record in a Kinesis
// batch. Undecodable records are reported as errors and skipped so one
// bad record cannot wedge the shard.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*event.Envelope, []error) {
	var envelopes []*event.Envelope
	var errs []error

	for _, record := range kinesisEvent.Records {
		env, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		envelopes = append(envelopes, env)
	}

	return envelopes, errs
}
