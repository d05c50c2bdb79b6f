package events

import "time"

// Event is the envelope that flows through the event bus.
// Every ledger event (bet created, bet settled, pass finished) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	League    string
	EventID   string // live event the bet belongs to
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	EventBetCreated    EventType = "bet_created"
	EventBetSettled    EventType = "bet_settled"
	EventPassCompleted EventType = "pass_completed"
)
