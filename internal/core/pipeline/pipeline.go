package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charleschow/lol-valuebets/internal/config"
	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/matching"
	"github.com/charleschow/lol-valuebets/internal/core/value"
	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Deps are the collaborators of a Pipeline. Aliases, Predictor, Bus and Lock
// are optional.
type Deps struct {
	Odds      OddsSource
	History   matching.HistorySource
	Aliases   identity.AliasStore
	Seed      []identity.Alias
	Predictor value.Predictor
	Ledger    *ledger.Ledger
	Bus       *events.Bus
	Lock      PassLock
}

// Pipeline runs collect and settle passes. Each pass builds its own alias
// table, normalizer and archive index, so passes never share mutable state.
type Pipeline struct {
	Deps

	th       config.Thresholds
	lookback time.Duration
	weights  matching.Weights
	lockTTL  time.Duration
	now      func() time.Time
}

func New(deps Deps, th config.Thresholds, lookback time.Duration) *Pipeline {
	if lookback <= 0 {
		lookback = 365 * 24 * time.Hour
	}
	return &Pipeline{
		Deps:     deps,
		th:       th,
		lookback: lookback,
		weights:  matching.DefaultWeights(),
		lockTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// snapshot is the immutable state one pass works against.
type snapshot struct {
	table *identity.AliasTable
	norm  *identity.Normalizer
	idx   *matching.Index
	cache *matching.Cache
	// cancelled holds feed event ids marked cancelled. Settle only.
	cancelled map[string]bool
}

func (p *Pipeline) buildSnapshot(ctx context.Context, records []matching.HistoricalRecord) (*snapshot, error) {
	table, err := identity.LoadTable(ctx, p.Aliases, p.Seed...)
	if err != nil {
		return nil, fmt.Errorf("load alias table: %w", err)
	}
	table = table.WithCanonicals(identity.KindTeam, matching.TeamNames(records)...)

	norm := identity.NewNormalizer(table, identity.FuzzyConfig{
		MinScore: p.th.FuzzyMinScore,
		Margin:   p.th.FuzzyMargin,
	})
	idx := matching.NewIndex(records, norm)
	return &snapshot{
		table: table,
		norm:  norm,
		idx:   idx,
		cache: matching.NewCache(matching.NewMatcher(norm, p.weights), idx),
	}, nil
}

func (p *Pipeline) valueConfig() value.Config {
	return value.Config{
		EVThreshold:     p.th.EVThreshold,
		ModelConfidence: p.th.ModelConfidence,
		MinSamples:      p.th.MinSamples,
	}
}

// withLock runs fn under the pass lock when one is configured.
func (p *Pipeline) withLock(ctx context.Context, pass string, rep *Report, fn func() error) error {
	if p.Lock == nil {
		return fn()
	}
	release, ok, err := p.Lock.Acquire(ctx, "lolvb:pass:"+pass, p.lockTTL)
	if err != nil {
		// Lock backend down: run anyway, the store still enforces uniqueness.
		telemetry.Warnf("pipeline: %s lock unavailable: %v", pass, err)
		return fn()
	}
	if !ok {
		rep.Skipped = true
		return nil
	}
	defer release()
	return fn()
}

func (p *Pipeline) finish(rep *Report, tracker *telemetry.LatencyTracker) {
	rep.Duration = p.now().Sub(rep.Started)
	tracker.Record(rep.Duration)
	if len(rep.Errors) > 0 {
		telemetry.Warnf("pipeline: %s", rep)
	} else {
		telemetry.Infof("pipeline: %s", rep)
	}
	if p.Bus == nil || rep.Skipped {
		return
	}
	p.Bus.Publish(events.Event{
		Type:      events.EventPassCompleted,
		Timestamp: p.now().UTC(),
		Payload: events.PassCompletedEvent{
			Pass:         rep.Pass,
			AliasVersion: rep.AliasVersion,
			Duration:     rep.Duration,
			Created:      rep.Created,
			Settled:      rep.Settle.Settled(),
			Pending:      rep.Settle.Unresolved,
			Errors:       rep.ErrorStrings(),
		},
	})
}
