package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/matching"
	"github.com/charleschow/lol-valuebets/internal/core/selection"
	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Collect fetches live odds and history, flags value bets and records the
// selected ones. A failed fetch means no data this pass: it lands in
// Report.Errors and the ledger is left untouched.
func (p *Pipeline) Collect(ctx context.Context) (Report, error) {
	rep := Report{Pass: PassCollect, Started: p.now()}
	telemetry.Metrics.CollectPasses.Inc()
	err := p.withLock(ctx, PassCollect, &rep, func() error { return p.collect(ctx, &rep) })
	p.finish(&rep, telemetry.Metrics.CollectLatency)
	return rep, err
}

func (p *Pipeline) collect(ctx context.Context, rep *Report) error {
	var (
		live    []LiveEvent
		records []matching.HistoricalRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		evs, err := p.Odds.LiveEvents(gctx)
		if err != nil {
			return fmt.Errorf("fetch live events: %w", err)
		}
		live = evs
		return nil
	})
	g.Go(func() error {
		recs, err := p.History.Records(gctx, p.now().Add(-p.lookback))
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		records = recs
		return nil
	})
	if err := g.Wait(); err != nil {
		telemetry.Metrics.FetchFailures.Inc()
		rep.fail(err)
		return ctx.Err()
	}
	telemetry.Metrics.EventsFetched.Add(int64(len(live)))

	snap, err := p.buildSnapshot(ctx, records)
	if err != nil {
		rep.fail(err)
		return nil
	}
	rep.AliasVersion = snap.table.Version()
	rep.Events = len(live)

	var cands []value.ValueBet
	for _, ev := range live {
		cands = append(cands, p.assessEvent(ctx, snap, ev, rep)...)
	}
	rep.Candidates = len(cands)
	telemetry.Metrics.ValueCandidates.Add(int64(len(cands)))

	selected := selection.SelectAll(cands, p.th.MaxBetsPerSegment)
	rep.Selected = len(selected)
	for _, vb := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, created, err := p.Ledger.Create(ctx, vb, rep.AliasVersion)
		switch {
		case err != nil:
			rep.fail(err)
		case created:
			rep.Created++
		default:
			rep.Duplicates++
		}
	}
	return nil
}

// assessEvent evaluates every priced side of ev and returns the value bets.
func (p *Pipeline) assessEvent(ctx context.Context, snap *snapshot, ev LiveEvent, rep *Report) []value.ValueBet {
	id1 := snap.norm.Identify(ev.Team1Raw, ev.LeagueRaw)
	id2 := snap.norm.Identify(ev.Team2Raw, ev.LeagueRaw)
	league, t1, t2 := id1.League, id1.Team, id2.Team
	ref := value.MatchRef{EventID: ev.EventID, League: league, Team1: t1, Team2: t2, Start: ev.StartTime}
	cfg := p.valueConfig()

	links := make(map[int]matching.Result)
	preds := make(map[string]*value.Prediction)
	var out []value.ValueBet

	for _, m := range ev.Markets {
		rep.Markets++
		res, seen := links[m.Segment]
		if !seen {
			res = snap.cache.Match(matching.Query{
				EventID: ev.EventID,
				League:  ev.LeagueRaw,
				Team1:   ev.Team1Raw,
				Team2:   ev.Team2Raw,
				Start:   ev.StartTime,
				Segment: m.Segment,
			}, p.th.NarrowTolerance)
			links[m.Segment] = res
			countMatch(rep, ev, m.Segment, res)
		}

		for i := range m.Prices {
			q := quote(snap.norm, m, i, t2)
			est := estimate(snap.idx, league, t1, t2, q)
			pred := p.predict(ctx, snap, league, res, q, preds)

			vb, ok, err := value.Assess(q, est, pred, cfg)
			if err != nil {
				telemetry.Debugf("pipeline: %s map %d %s %s: %v", ev.EventID, m.Segment, q.Kind, q.Side, err)
				continue
			}
			if !ok {
				continue
			}
			vb.Match = ref
			vb.Segment = m.Segment
			out = append(out, vb)
		}
	}
	return out
}

func countMatch(rep *Report, ev LiveEvent, segment int, res matching.Result) {
	switch res.Kind {
	case matching.Exact:
		rep.Exact++
		telemetry.Metrics.MatchExact.Inc()
	case matching.Relaxed:
		rep.Relaxed++
		telemetry.Metrics.MatchRelaxed.Inc()
	case matching.Ambiguous:
		rep.Ambiguous++
		telemetry.Metrics.MatchAmbiguous.Inc()
		telemetry.Debugf("pipeline: %s map %d (%s vs %s): %s", ev.EventID, segment, ev.Team1Raw, ev.Team2Raw, res)
	default:
		rep.NotFound++
		telemetry.Metrics.MatchNotFound.Inc()
		telemetry.Debugf("pipeline: %s map %d (%s vs %s) not in archive", ev.EventID, segment, ev.Team1Raw, ev.Team2Raw)
	}
}

// quote turns side i of m into a MarketQuote with canonical team sides.
func quote(norm *identity.Normalizer, m Market, i int, team2 string) value.MarketQuote {
	sp := m.Prices[i]
	q := value.MarketQuote{Kind: m.Kind, Stat: m.Stat, Line: m.Line, Side: sp.Side, Price: sp.Price}
	if len(m.Prices) == 2 {
		q.OppositePrice = m.Prices[1-i].Price
	}
	switch m.Kind {
	case value.KindMoneyline, value.KindHandicap:
		q.Side = norm.Canonical(sp.Side, identity.KindTeam)
		if m.Kind == value.KindHandicap && m.Line != nil && q.Side == team2 {
			l := -*m.Line
			q.Line = &l
		}
	case value.KindTotal:
		q.Side = strings.ToLower(sp.Side)
	}
	return q
}

// estimate derives the empirical probability of q from the archive.
func estimate(idx *matching.Index, league, t1, t2 string, q value.MarketQuote) value.Empirical {
	switch q.Kind {
	case value.KindTotal:
		if q.Line == nil {
			return value.Empirical{}
		}
		return value.EmpiricalTotal(idx.Samples(league, t1, t2, q.Stat, 0), *q.Line, q.Side)

	case value.KindMoneyline:
		var opp string
		switch q.Side {
		case t1:
			opp = t2
		case t2:
			opp = t1
		default:
			return value.Empirical{}
		}
		wa, ma := idx.TeamRecord(league, q.Side)
		wb, mb := idx.TeamRecord(league, opp)
		return value.EmpiricalMoneyline(wa, ma, wb, mb)

	case value.KindHandicap:
		if q.Line == nil {
			return value.Empirical{}
		}
		// Covers when margin + line > 0.
		return value.EmpiricalTotal(idx.Margins(league, q.Side), -*q.Line, value.SideOver)
	}
	return value.Empirical{}
}

// predict asks the model about total markets of a trusted, fully drafted
// map. Any failure degrades to no prediction.
func (p *Pipeline) predict(ctx context.Context, snap *snapshot, league string, res matching.Result, q value.MarketQuote, memo map[string]*value.Prediction) *value.Prediction {
	if p.Predictor == nil || q.Kind != value.KindTotal || q.Line == nil {
		return nil
	}
	if !res.Resolved() || !p.trusted(res.Link) || !res.Link.Record.Draft.Complete() {
		return nil
	}

	key := fmt.Sprintf("%s|%d|%s|%.2f", res.Link.GameID, res.Link.Record.Segment, q.Stat, *q.Line)
	if pred, ok := memo[key]; ok {
		return pred
	}

	mean, std, _ := snap.idx.StatMoments(league, q.Stat)
	draft := res.Link.Record.Draft
	pred, err := p.Predictor.Predict(ctx, value.PredictRequest{
		League:     league,
		Team1:      draft.Team1,
		Team2:      draft.Team2,
		Stat:       q.Stat,
		Line:       *q.Line,
		LeagueMean: mean,
		LeagueStd:  std,
	})
	switch {
	case errors.Is(err, value.ErrModelUnavailable):
		telemetry.Metrics.ModelUnavailable.Inc()
		pred = nil
	case err != nil:
		telemetry.Metrics.ModelUnavailable.Inc()
		telemetry.Warnf("pipeline: model prediction for %s failed: %v", res.Link.GameID, err)
		pred = nil
	}
	memo[key] = pred
	return pred
}

// trusted reports whether a link is strong enough to act on: above the
// confidence floor and with both teams matched.
func (p *Pipeline) trusted(l *matching.Link) bool {
	if l == nil || l.Confidence < p.th.MinMatchConfidence {
		return false
	}
	for _, c := range l.MatchedBy {
		if c == matching.CriterionPartialTeams {
			return false
		}
	}
	return true
}
