package ledger

import (
	"errors"

	"github.com/charleschow/lol-valuebets/internal/core/value"
)

// ErrNoOutcome means the linked map does not carry what the market needs.
// The bet stays pending.
var ErrNoOutcome = errors.New("outcome not available for market")

// Outcome is what actually happened on the linked map.
type Outcome struct {
	// Value is the realized stat for totals, or the side's margin for handicaps.
	Value  *float64
	Winner string
	// Cancelled marks a map that was never played.
	Cancelled bool
	GameID    string
}

// Decide maps a realized outcome onto a terminal status for key. A total
// landing exactly on the line is void; a moneyline is won iff the side won.
func Decide(key NaturalKey, o Outcome) (Status, error) {
	if o.Cancelled {
		return StatusVoid, nil
	}

	switch key.Kind {
	case value.KindTotal:
		if o.Value == nil || key.Line == nil {
			return "", ErrNoOutcome
		}
		return overUnder(key.Side, *o.Value, *key.Line)

	case value.KindHandicap:
		if o.Value == nil || key.Line == nil {
			return "", ErrNoOutcome
		}
		// Value is the side's margin; the bet wins if margin+line > 0.
		return overUnder(value.SideOver, *o.Value+*key.Line, 0)

	case value.KindMoneyline:
		if o.Winner == "" {
			return "", ErrNoOutcome
		}
		if o.Winner == key.Side {
			return StatusWon, nil
		}
		return StatusLost, nil
	}
	return "", ErrNoOutcome
}

func overUnder(side string, realized, line float64) (Status, error) {
	switch {
	case realized == line:
		return StatusVoid, nil
	case side == value.SideOver && realized > line,
		side == value.SideUnder && realized < line:
		return StatusWon, nil
	case side == value.SideOver || side == value.SideUnder:
		return StatusLost, nil
	}
	return "", ErrNoOutcome
}
