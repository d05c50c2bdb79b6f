// Package selection caps the value bets kept per match segment.
package selection

import (
	"cmp"
	"slices"

	"github.com/charleschow/lol-valuebets/internal/core/value"
)

const DefaultMaxPerSegment = 3

// byPriceDesc ranks empirical candidates: highest payout first.
func byPriceDesc(a, b value.ValueBet) int { return cmp.Compare(b.Price, a.Price) }

// byEVDesc ranks model candidates: highest expected value first.
func byEVDesc(a, b value.ValueBet) int { return cmp.Compare(b.EV, a.EV) }

// Select keeps at most k candidates of one (match, segment). Model-attributed
// candidates are ranked by EV and take slots first; empirical candidates,
// ranked by price, fill what is left. Both sorts are stable.
func Select(cands []value.ValueBet, k int) []value.ValueBet {
	if k <= 0 || len(cands) == 0 {
		return nil
	}

	var model, empirical []value.ValueBet
	for _, c := range cands {
		if c.Method == value.MethodModel {
			model = append(model, c)
		} else {
			empirical = append(empirical, c)
		}
	}
	slices.SortStableFunc(model, byEVDesc)
	slices.SortStableFunc(empirical, byPriceDesc)

	out := make([]value.ValueBet, 0, min(k, len(cands)))
	for _, group := range [][]value.ValueBet{model, empirical} {
		for _, c := range group {
			if len(out) == k {
				return out
			}
			out = append(out, c)
		}
	}
	return out
}

// Key groups candidates by match and segment.
type Key struct {
	EventID string
	Segment int
}

// SelectAll applies Select per (match, segment), preserving the order in
// which groups first appear.
func SelectAll(cands []value.ValueBet, k int) []value.ValueBet {
	groups := make(map[Key][]value.ValueBet)
	var order []Key
	for _, c := range cands {
		key := Key{c.Match.EventID, c.Segment}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], c)
	}

	var out []value.ValueBet
	for _, key := range order {
		out = append(out, Select(groups[key], k)...)
	}
	return out
}
