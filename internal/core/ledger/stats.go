package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Stats is a ledger summary at unit stake.
type Stats struct {
	Total    int                    `json:"total"`
	ByStatus map[Status]int         `json:"by_status"`
	ByMethod map[string]MethodStats `json:"by_method"`
	WinRate  decimal.Decimal        `json:"win_rate"`
	Profit   decimal.Decimal        `json:"profit"`
	ROI      decimal.Decimal        `json:"roi"`
}

type MethodStats struct {
	Total  int             `json:"total"`
	Won    int             `json:"won"`
	Lost   int             `json:"lost"`
	Profit decimal.Decimal `json:"profit"`
}

// Summarize computes Stats over bets. A won bet returns price-1, a lost bet
// -1, void and pending 0. ROI is profit over decided (won+lost) stakes, in
// percent.
func Summarize(bets []Bet) Stats {
	s := Stats{
		ByStatus: make(map[Status]int),
		ByMethod: make(map[string]MethodStats),
	}
	one := decimal.NewFromInt(1)
	var won, lost int

	for _, b := range bets {
		s.Total++
		s.ByStatus[b.Status]++

		ms := s.ByMethod[string(b.Method)]
		ms.Total++
		var pnl decimal.Decimal
		switch b.Status {
		case StatusWon:
			won++
			ms.Won++
			pnl = decimal.NewFromFloat(b.Price).Sub(one)
		case StatusLost:
			lost++
			ms.Lost++
			pnl = one.Neg()
		}
		ms.Profit = ms.Profit.Add(pnl)
		s.ByMethod[string(b.Method)] = ms
		s.Profit = s.Profit.Add(pnl)
	}

	if decided := won + lost; decided > 0 {
		d := decimal.NewFromInt(int64(decided))
		s.WinRate = decimal.NewFromInt(int64(won)).Div(d).Round(4)
		s.ROI = s.Profit.Div(d).Mul(decimal.NewFromInt(100)).Round(2)
	}
	s.Profit = s.Profit.Round(2)
	return s
}

// Stats summarises every bet in the store.
func (l *Ledger) Stats(ctx context.Context) (Stats, error) {
	bets, err := l.store.List(ctx, Filter{})
	if err != nil {
		return Stats{}, fmt.Errorf("list bets: %w", err)
	}
	return Summarize(bets), nil
}
