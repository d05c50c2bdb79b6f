package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/lol-valuebets/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket
// and appended to the Redis stream.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	League    string          `json:"league,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		League:    evt.League,
		EventID:   evt.EventID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		League:    env.League,
		EventID:   env.EventID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventBetCreated:
		var bc events.BetCreatedEvent
		if err := json.Unmarshal(env.Payload, &bc); err != nil {
			return evt, fmt.Errorf("unmarshal bet_created: %w", err)
		}
		evt.Payload = bc
	case events.EventBetSettled:
		var bs events.BetSettledEvent
		if err := json.Unmarshal(env.Payload, &bs); err != nil {
			return evt, fmt.Errorf("unmarshal bet_settled: %w", err)
		}
		evt.Payload = bs
	case events.EventPassCompleted:
		var pc events.PassCompletedEvent
		if err := json.Unmarshal(env.Payload, &pc); err != nil {
			return evt, fmt.Errorf("unmarshal pass_completed: %w", err)
		}
		evt.Payload = pc
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}
