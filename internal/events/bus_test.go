package events

import (
	"errors"
	"testing"
)

func TestPublishDispatchesInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(EventBetCreated, func(Event) error { got = append(got, "a"); return nil })
	bus.Subscribe(EventBetCreated, func(Event) error { got = append(got, "b"); return nil })
	bus.Subscribe(EventBetSettled, func(Event) error { got = append(got, "settled"); return nil })

	bus.Publish(Event{Type: EventBetCreated})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("dispatch = %v, want [a b]", got)
	}
}

func TestPublishSurvivesFailingHandlers(t *testing.T) {
	bus := NewBus()
	delivered := false
	bus.Subscribe(EventBetSettled, func(Event) error { return errors.New("discord down") })
	bus.Subscribe(EventBetSettled, func(Event) error { panic("boom") })
	bus.Subscribe(EventBetSettled, func(Event) error { delivered = true; return nil })

	bus.Publish(Event{Type: EventBetSettled})
	if !delivered {
		t.Error("handler after failing ones was not called")
	}
}

func TestPublishStampsEnvelope(t *testing.T) {
	bus := NewBus()
	var seen Event
	bus.Subscribe(EventPassCompleted, func(e Event) error { seen = e; return nil })
	bus.Publish(Event{Type: EventPassCompleted})
	if seen.ID == "" || seen.Timestamp.IsZero() {
		t.Errorf("envelope not stamped: %+v", seen)
	}
}
