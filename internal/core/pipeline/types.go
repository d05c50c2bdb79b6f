// Package pipeline runs the collect and settle passes over the core
// packages: normalize, match, assess, select, record.
package pipeline

import (
	"context"
	"time"
)

// SidePrice is one priced outcome. For moneyline and handicap markets Side
// is the raw team name as the odds feed spells it.
type SidePrice struct {
	Side  string  `json:"side"`
	Price float64 `json:"price"`
}

// Market is one market of a live event. For handicaps Line is quoted from
// Team1's perspective; Team2's line is its negation.
type Market struct {
	Segment int         `json:"segment"`
	Kind    string      `json:"kind"`
	Stat    string      `json:"stat,omitempty"`
	Line    *float64    `json:"line,omitempty"`
	Prices  []SidePrice `json:"prices"`
}

// LiveEvent is an upcoming match as the odds feed reports it.
type LiveEvent struct {
	EventID   string    `json:"event_id"`
	LeagueRaw string    `json:"league"`
	Team1Raw  string    `json:"team1"`
	Team2Raw  string    `json:"team2"`
	StartTime time.Time `json:"start_time"`
	Markets   []Market  `json:"markets"`
}

// OddsSource yields the current live events and their markets.
// CancelledEvents lists ids of events scheduled after since that the feed
// marked cancelled; bets on them settle void.
type OddsSource interface {
	LiveEvents(ctx context.Context) ([]LiveEvent, error)
	CancelledEvents(ctx context.Context, since time.Time) ([]string, error)
}

// PassLock guards a pass against overlapping runs in other processes.
// ok=false means another holder owns the lock.
type PassLock interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}
