package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LeadEvent is a versioned event about a single lead.
type LeadEvent interface {
	EventType() string
	AggregateID() string
}

// Envelope is the JSON body written to the queue.
type Envelope struct {
	EventID         uuid.UUID       `json:"event_id"`
	EventType       string          `json:"event_type"`
	Aggregate       string          `json:"aggregate"`
	TimestampMicros int64           `json:"timestamp"`
	CorrelationID   string          `json:"correlation_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

type EnvelopeOption func(*Envelope)

// WithEventID replaces the random event id. uuid.Nil is ignored.
func WithEventID(id uuid.UUID) EnvelopeOption {
	return func(e *Envelope) {
		if id != uuid.Nil {
			e.EventID = id
		}
	}
}

// WithTimestamp stamps the envelope with ts instead of the wall clock.
func WithTimestamp(ts time.Time) EnvelopeOption {
	return func(e *Envelope) {
		if !ts.IsZero() {
			e.TimestampMicros = ts.UTC().UnixMicro()
		}
	}
}

// WithCorrelationID links the envelope to a request or trace.
func WithCorrelationID(id string) EnvelopeOption {
	return func(e *Envelope) {
		e.CorrelationID = strings.TrimSpace(id)
	}
}

// leadEventNamespace seeds LeadEventID.
var leadEventNamespace = uuid.MustParse("4f1c2b8e-6a53-4d0e-9b57-2f3c8d1e7a90")

// LeadEventID is stable for a (lead, event type) pair, so a resent event
// carries the id of the first attempt and consumers can drop the repeat.
func LeadEventID(leadID, eventType string) uuid.UUID {
	return uuid.NewSHA1(leadEventNamespace, []byte(eventType+"|"+leadID))
}

var (
	errNilEvent         = errors.New("events: lead event required")
	errMissingAggregate = errors.New("events: aggregate id is required")
	nowFunc             = time.Now
)

// NewEnvelope marshals evt into an envelope keyed "lead:<id>".
func NewEnvelope(evt LeadEvent, opts ...EnvelopeOption) (Envelope, error) {
	if evt == nil {
		return Envelope{}, errNilEvent
	}
	aggregateID := strings.TrimSpace(evt.AggregateID())
	if aggregateID == "" {
		return Envelope{}, errMissingAggregate
	}
	eventType := strings.TrimSpace(evt.EventType())
	if eventType == "" {
		return Envelope{}, fmt.Errorf("events: event type missing for lead %s", aggregateID)
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("events: marshal %s: %w", eventType, err)
	}

	env := Envelope{
		EventID:         uuid.New(),
		EventType:       eventType,
		Aggregate:       "lead:" + aggregateID,
		TimestampMicros: nowFunc().UTC().UnixMicro(),
		Payload:         payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&env)
		}
	}
	return env, nil
}
