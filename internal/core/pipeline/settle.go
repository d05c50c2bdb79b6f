package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/matching"
	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Settle resolves pending bets against the archive with the wide date
// tolerance. Bets whose match is not (yet) archived stay pending.
func (p *Pipeline) Settle(ctx context.Context) (Report, error) {
	rep := Report{Pass: PassSettle, Started: p.now()}
	telemetry.Metrics.SettlePasses.Inc()
	err := p.withLock(ctx, PassSettle, &rep, func() error { return p.settle(ctx, &rep) })
	p.finish(&rep, telemetry.Metrics.SettleLatency)
	return rep, err
}

func (p *Pipeline) settle(ctx context.Context, rep *Report) error {
	records, err := p.History.Records(ctx, p.now().Add(-p.lookback))
	if err != nil {
		telemetry.Metrics.FetchFailures.Inc()
		rep.fail(fmt.Errorf("fetch history: %w", err))
		return ctx.Err()
	}
	snap, err := p.buildSnapshot(ctx, records)
	if err != nil {
		rep.fail(err)
		return nil
	}
	rep.AliasVersion = snap.table.Version()
	snap.cancelled = p.cancelledEvents(ctx, rep)

	sr, err := p.Ledger.Settle(ctx, ledger.ResolverFunc(func(_ context.Context, b ledger.Bet) (ledger.Outcome, bool, error) {
		return p.resolve(snap, b)
	}))
	rep.Settle = sr
	rep.Errors = append(rep.Errors, sr.Errors...)
	if err != nil {
		rep.fail(err)
	}
	return nil
}

// cancelledEvents asks the odds feed which events were called off. A failed
// fetch is reported and the pass continues without voiding anything.
func (p *Pipeline) cancelledEvents(ctx context.Context, rep *Report) map[string]bool {
	ids, err := p.Odds.CancelledEvents(ctx, p.now().Add(-p.lookback))
	if err != nil {
		telemetry.Metrics.FetchFailures.Inc()
		rep.fail(fmt.Errorf("fetch cancelled events: %w", err))
		return nil
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// resolve links b to its archived map and reads the realized outcome.
func (p *Pipeline) resolve(snap *snapshot, b ledger.Bet) (ledger.Outcome, bool, error) {
	if b.Match.EventID != "" && snap.cancelled[b.Match.EventID] {
		return ledger.Outcome{Cancelled: true}, true, nil
	}

	res := snap.cache.Match(matching.Query{
		EventID: b.Match.EventID,
		League:  b.Match.League,
		Team1:   b.Match.Team1,
		Team2:   b.Match.Team2,
		Start:   b.Match.Start,
		Segment: b.Key.Segment,
	}, p.th.WideTolerance)

	if !res.Resolved() {
		telemetry.Debugf("pipeline: bet %s unresolved: %s", b.ID, res)
		return ledger.Outcome{}, false, nil
	}
	if !p.settleable(res.Link) {
		telemetry.Debugf("pipeline: bet %s link too weak: %s", b.ID, res)
		return ledger.Outcome{}, false, nil
	}

	r := res.Link.Record
	o := ledger.Outcome{GameID: r.GameID}
	switch b.Key.Kind {
	case value.KindTotal:
		if v, ok := r.Outcome(b.Key.Stat); ok {
			o.Value = &v
		}
	case value.KindHandicap:
		side := snap.norm.Canonical(b.Key.Side, identity.KindTeam)
		if m, ok := r.KillMargin(side); ok {
			o.Value = &m
		}
	case value.KindMoneyline:
		if r.Winner == "" {
			break
		}
		// The alias table may have moved since creation; compare canonicals.
		if snap.norm.Same(b.Key.Side, r.Winner, identity.KindTeam) {
			o.Winner = b.Key.Side
		} else {
			o.Winner = r.Winner
		}
	}
	return o, true, nil
}

// settleable is a trusted link whose map was played inside the wide date
// window. A widened date may be an earlier meeting of the same teams, and a
// terminal status cannot be undone.
func (p *Pipeline) settleable(l *matching.Link) bool {
	if !p.trusted(l) {
		return false
	}
	return slices.Contains(l.MatchedBy, matching.CriterionDate)
}
