package events

import (
	"fmt"
	"time"
)

// BetSnapshot is the wire view of a ledger bet carried by events.
type BetSnapshot struct {
	ID            string     `json:"id"`
	NaturalKey    string     `json:"natural_key"`
	EventID       string     `json:"event_id"`
	League        string     `json:"league"`
	Team1         string     `json:"team1"`
	Team2         string     `json:"team2"`
	StartTime     time.Time  `json:"start_time"`
	Segment       int        `json:"segment"`
	Kind          string     `json:"kind"`
	Stat          string     `json:"stat,omitempty"`
	Line          *float64   `json:"line,omitempty"`
	Side          string     `json:"side"`
	Price         float64    `json:"price"`
	EV            float64    `json:"ev"`
	EmpiricalProb float64    `json:"empirical_prob"`
	ModelProb     *float64   `json:"model_prob,omitempty"`
	Method        string     `json:"method"`
	Status        string     `json:"status"`
	ResultValue   *float64   `json:"result_value,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

// BetCreatedEvent is published once per newly inserted bet.
type BetCreatedEvent struct {
	Bet BetSnapshot `json:"bet"`
}

// BetSettledEvent is published once per transition into a terminal status.
type BetSettledEvent struct {
	Bet       BetSnapshot `json:"bet"`
	OldStatus string      `json:"old_status"`
	NewStatus string      `json:"new_status"`
	Realized  *float64    `json:"realized,omitempty"`
	Winner    string      `json:"winner,omitempty"`
}

// PassCompletedEvent summarises one collect or settle pass.
type PassCompletedEvent struct {
	Pass         string        `json:"pass"`
	AliasVersion int64         `json:"alias_version"`
	Duration     time.Duration `json:"duration"`
	Created      int           `json:"created,omitempty"`
	Settled      int           `json:"settled,omitempty"`
	Pending      int           `json:"pending,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// Market renders the bet's market for humans, e.g. "Map 1 total_kills over 26.5".
func (b BetSnapshot) Market() string {
	seg := fmt.Sprintf("Map %d", b.Segment)
	if b.Segment == 0 {
		seg = "Series"
	}
	switch {
	case b.Line == nil:
		return fmt.Sprintf("%s %s %s", seg, b.Kind, b.Side)
	case b.Kind == "handicap":
		return fmt.Sprintf("%s %s %s %+.1f", seg, b.Kind, b.Side, *b.Line)
	default:
		return fmt.Sprintf("%s %s %s %.1f", seg, b.Stat, b.Side, *b.Line)
	}
}

// Matchup is "Team1 vs Team2".
func (b BetSnapshot) Matchup() string {
	return b.Team1 + " vs " + b.Team2
}
