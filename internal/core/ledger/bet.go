// Package ledger records value bets and drives them from pending to a
// terminal status exactly once.
package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/events"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusVoid
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(s)); st {
	case StatusPending, StatusWon, StatusLost, StatusVoid:
		return st, nil
	}
	return "", fmt.Errorf("unknown bet status %q", s)
}

// NaturalKey identifies a bet independently of its ID. Two candidates with
// the same key are the same bet.
type NaturalKey struct {
	Match   string   `json:"match"`
	Segment int      `json:"segment"`
	Kind    string   `json:"kind"`
	Stat    string   `json:"stat,omitempty"`
	Line    *float64 `json:"line,omitempty"`
	Side    string   `json:"side"`
}

// String is the canonical encoding stored under the UNIQUE constraint.
func (k NaturalKey) String() string {
	line := "-"
	if k.Line != nil {
		line = strconv.FormatFloat(*k.Line, 'f', 2, 64)
	}
	return strings.Join([]string{
		k.Match, strconv.Itoa(k.Segment), k.Kind, k.Stat, line, k.Side,
	}, "|")
}

// MatchKey names the live match: its event id when the feed provides one,
// otherwise league, sorted team pair and start date.
func MatchKey(m value.MatchRef) string {
	if m.EventID != "" {
		return "ev:" + m.EventID
	}
	teams := []string{m.Team1, m.Team2}
	sort.Strings(teams)
	return fmt.Sprintf("%s|%s|%s|%s", m.League, teams[0], teams[1], m.Start.UTC().Format("2006-01-02"))
}

// KeyOf derives the natural key of a candidate.
func KeyOf(vb value.ValueBet) NaturalKey {
	return NaturalKey{
		Match:   MatchKey(vb.Match),
		Segment: vb.Segment,
		Kind:    vb.Kind,
		Stat:    vb.Stat,
		Line:    vb.Line,
		Side:    vb.Side,
	}
}

// Bet is a ledger row. Key, Match and the price/EV snapshot never change
// after creation; only Status, ResultValue and ResolvedAt do.
type Bet struct {
	ID            string         `json:"id"`
	Key           NaturalKey     `json:"key"`
	Match         value.MatchRef `json:"match"`
	Price         float64        `json:"price"`
	EV            float64        `json:"ev"`
	Edge          float64        `json:"edge"`
	EmpiricalProb float64        `json:"empirical_prob"`
	ModelProb     *float64       `json:"model_prob,omitempty"`
	ImpliedProb   float64        `json:"implied_prob"`
	Method        value.Method   `json:"method"`
	Status        Status         `json:"status"`
	ResultValue   *float64       `json:"result_value,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	Metadata      Metadata       `json:"metadata"`
}

// Metadata is the supporting context stored alongside a bet.
type Metadata struct {
	Samples      int     `json:"samples"`
	HistMean     float64 `json:"hist_mean"`
	HistStd      float64 `json:"hist_std"`
	FairProb     float64 `json:"fair_prob,omitempty"`
	AliasVersion int64   `json:"alias_version"`
	Winner       string  `json:"winner,omitempty"`
	GameID       string  `json:"game_id,omitempty"`
}

// NewBet builds a pending bet from a selected candidate.
func NewBet(vb value.ValueBet, aliasVersion int64, now time.Time) Bet {
	return Bet{
		ID:            uuid.NewString(),
		Key:           KeyOf(vb),
		Match:         vb.Match,
		Price:         vb.Price,
		EV:            vb.EV,
		Edge:          vb.Edge,
		EmpiricalProb: vb.EmpiricalProb,
		ModelProb:     vb.ModelProb,
		ImpliedProb:   vb.ImpliedProb,
		Method:        vb.Method,
		Status:        StatusPending,
		CreatedAt:     now.UTC(),
		Metadata: Metadata{
			Samples:      vb.Samples,
			HistMean:     vb.HistMean,
			HistStd:      vb.HistStd,
			FairProb:     vb.FairProb,
			AliasVersion: aliasVersion,
		},
	}
}

// Snapshot converts b to its event wire form.
func (b Bet) Snapshot() events.BetSnapshot {
	return events.BetSnapshot{
		ID:            b.ID,
		NaturalKey:    b.Key.String(),
		EventID:       b.Match.EventID,
		League:        b.Match.League,
		Team1:         b.Match.Team1,
		Team2:         b.Match.Team2,
		StartTime:     b.Match.Start,
		Segment:       b.Key.Segment,
		Kind:          b.Key.Kind,
		Stat:          b.Key.Stat,
		Line:          b.Key.Line,
		Side:          b.Key.Side,
		Price:         b.Price,
		EV:            b.EV,
		EmpiricalProb: b.EmpiricalProb,
		ModelProb:     b.ModelProb,
		Method:        string(b.Method),
		Status:        string(b.Status),
		ResultValue:   b.ResultValue,
		CreatedAt:     b.CreatedAt,
		ResolvedAt:    b.ResolvedAt,
	}
}
