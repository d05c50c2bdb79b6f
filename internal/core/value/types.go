package value

import (
	"errors"
	"time"
)

var (
	ErrInvalidMarket      = errors.New("invalid market: decimal price must be > 1")
	ErrInvalidProbability = errors.New("invalid probability: must be strictly between 0 and 1")
	ErrModelUnavailable   = errors.New("model unavailable")
)

type Method string

const (
	MethodEmpirical Method = "empirical"
	MethodModel     Method = "model"
)

// Market kinds.
const (
	KindMoneyline = "moneyline"
	KindTotal     = "total"
	KindHandicap  = "handicap"
	KindSpecial   = "special"
)

// Sides of a total market. Moneyline and handicap sides are team names.
const (
	SideOver  = "over"
	SideUnder = "under"
)

// MatchRef identifies the live match a candidate belongs to.
type MatchRef struct {
	EventID string    `json:"event_id"`
	League  string    `json:"league"`
	Team1   string    `json:"team1"`
	Team2   string    `json:"team2"`
	Start   time.Time `json:"start"`
}

// MarketQuote is one priced side of a market.
type MarketQuote struct {
	Kind  string   `json:"kind"`
	Stat  string   `json:"stat,omitempty"`
	Line  *float64 `json:"line,omitempty"`
	Side  string   `json:"side"`
	Price float64  `json:"price"`
	// OppositePrice is the other side of a two-way market, 0 if unknown.
	OppositePrice float64 `json:"opposite_price,omitempty"`
}

// Empirical is the historical estimate for one market side.
type Empirical struct {
	Prob    float64 `json:"prob"`
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
}

// Prediction is the model's probability per side.
type Prediction struct {
	Probs map[string]float64 `json:"probs"`
}

// Favored returns the side with the highest probability. Ties resolve to
// the lexically smaller side so the result is deterministic.
func (p *Prediction) Favored() (string, float64) {
	var side string
	best := -1.0
	for s, v := range p.Probs {
		if v > best || (v == best && s < side) {
			side, best = s, v
		}
	}
	return side, best
}

// Config holds the decision thresholds.
type Config struct {
	EVThreshold     float64
	ModelConfidence float64
	MinSamples      int
}

func DefaultConfig() Config {
	return Config{EVThreshold: 0.05, ModelConfidence: 0.65, MinSamples: 5}
}

// ValueBet is a market side flagged as valuable by one method.
type ValueBet struct {
	Match         MatchRef `json:"match"`
	Segment       int      `json:"segment"`
	Kind          string   `json:"kind"`
	Stat          string   `json:"stat,omitempty"`
	Line          *float64 `json:"line,omitempty"`
	Side          string   `json:"side"`
	Price         float64  `json:"price"`
	EmpiricalProb float64  `json:"empirical_prob"`
	ModelProb     *float64 `json:"model_prob,omitempty"`
	ImpliedProb   float64  `json:"implied_prob"`
	FairProb      float64  `json:"fair_prob,omitempty"`
	EV            float64  `json:"ev"`
	Edge          float64  `json:"edge"`
	Method        Method   `json:"method"`
	Samples       int      `json:"samples"`
	HistMean      float64  `json:"hist_mean"`
	HistStd       float64  `json:"hist_std"`
}

// LineValue returns the line or 0 for line-less markets.
func (v ValueBet) LineValue() float64 {
	if v.Line == nil {
		return 0
	}
	return *v.Line
}
