package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Resolver finds the realized outcome of a pending bet. ok=false means the
// match could not be resolved this pass and the bet stays pending.
type Resolver interface {
	Resolve(ctx context.Context, b Bet) (o Outcome, ok bool, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, b Bet) (Outcome, bool, error)

func (f ResolverFunc) Resolve(ctx context.Context, b Bet) (Outcome, bool, error) {
	return f(ctx, b)
}

// Ledger owns bet creation and settlement. All writes go through Store; the
// bus only ever sees transitions that actually happened.
type Ledger struct {
	store Store
	bus   *events.Bus
	locks *KeyLock
	now   func() time.Time
}

func New(store Store, bus *events.Bus) *Ledger {
	return &Ledger{
		store: store,
		bus:   bus,
		locks: NewKeyLock(),
		now:   time.Now,
	}
}

func (l *Ledger) Store() Store { return l.store }

// Create records vb as a pending bet unless a bet with the same natural key
// exists. created=false is not an error and publishes nothing.
func (l *Ledger) Create(ctx context.Context, vb value.ValueBet, aliasVersion int64) (Bet, bool, error) {
	b := NewBet(vb, aliasVersion, l.now())
	unlock := l.locks.Lock(b.Key.String())
	defer unlock()

	inserted, err := l.store.InsertIfAbsent(ctx, b)
	if errors.Is(err, ErrStoreConflict) {
		inserted, err = false, nil
	}
	if err != nil {
		return Bet{}, false, fmt.Errorf("insert bet %s: %w", b.Key, err)
	}
	if !inserted {
		telemetry.Metrics.BetsDuplicate.Inc()
		telemetry.Debugf("ledger: %s already recorded", b.Key)
		return b, false, nil
	}

	telemetry.Metrics.BetsCreated.Inc()
	telemetry.Metrics.PendingBets.Inc()
	telemetry.Infof("ledger: created %s %s @ %.2f ev=%.3f (%s)", b.Match.League, b.Key, b.Price, b.EV, b.Method)
	l.publish(events.EventBetCreated, b, events.BetCreatedEvent{Bet: b.Snapshot()})
	return b, true, nil
}

// SettleReport summarises one settlement sweep.
type SettleReport struct {
	Checked    int
	Won        int
	Lost       int
	Void       int
	Unresolved int
	Errors     []error
}

func (r SettleReport) Settled() int { return r.Won + r.Lost + r.Void }

// Settle resolves every pending bet. A failure on one bet is recorded in the
// report and the sweep continues; only failing to list pending bets aborts.
func (l *Ledger) Settle(ctx context.Context, r Resolver) (SettleReport, error) {
	var rep SettleReport
	pending, err := l.store.Pending(ctx)
	if err != nil {
		return rep, fmt.Errorf("list pending bets: %w", err)
	}
	telemetry.Metrics.PendingBets.Set(int64(len(pending)))

	for _, b := range pending {
		if ctx.Err() != nil {
			rep.Errors = append(rep.Errors, ctx.Err())
			break
		}
		rep.Checked++

		o, ok, err := r.Resolve(ctx, b)
		if err != nil {
			telemetry.Metrics.SettleErrors.Inc()
			rep.Errors = append(rep.Errors, fmt.Errorf("resolve %s: %w", b.ID, err))
			continue
		}
		if !ok {
			rep.Unresolved++
			continue
		}

		st, err := l.SettleOne(ctx, b, o)
		switch {
		case errors.Is(err, ErrNoOutcome), errors.Is(err, ErrNotPending):
			rep.Unresolved++
			continue
		case err != nil:
			telemetry.Metrics.SettleErrors.Inc()
			rep.Errors = append(rep.Errors, err)
			continue
		}
		switch st {
		case StatusWon:
			rep.Won++
		case StatusLost:
			rep.Lost++
		case StatusVoid:
			rep.Void++
		}
	}
	return rep, nil
}

// SettleOne applies outcome o to pending bet b. It returns ErrNotPending if
// another writer settled b first.
func (l *Ledger) SettleOne(ctx context.Context, b Bet, o Outcome) (Status, error) {
	st, err := Decide(b.Key, o)
	if err != nil {
		return "", err
	}

	unlock := l.locks.Lock(b.Key.String())
	defer unlock()

	at := l.now().UTC()
	meta := b.Metadata
	meta.Winner = o.Winner
	meta.GameID = o.GameID

	changed, err := l.store.TransitionIfPending(ctx, b.ID, st, o.Value, meta, at)
	if err != nil {
		return "", fmt.Errorf("settle %s: %w", b.ID, err)
	}
	if !changed {
		return "", ErrNotPending
	}

	old := b.Status
	b.Status, b.ResultValue, b.ResolvedAt, b.Metadata = st, o.Value, &at, meta
	telemetry.Metrics.BetsSettled.Inc()
	telemetry.Metrics.PendingBets.Dec()
	telemetry.Infof("ledger: settled %s -> %s", b.Key, st)

	l.publish(events.EventBetSettled, b, events.BetSettledEvent{
		Bet:       b.Snapshot(),
		OldStatus: string(old),
		NewStatus: string(st),
		Realized:  o.Value,
		Winner:    o.Winner,
	})
	return st, nil
}

func (l *Ledger) publish(t events.EventType, b Bet, payload any) {
	if l.bus == nil {
		return
	}
	l.bus.Publish(events.Event{
		Type:      t,
		League:    b.Match.League,
		EventID:   b.Match.EventID,
		Timestamp: l.now().UTC(),
		Payload:   payload,
	})
}
