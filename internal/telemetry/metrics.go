package telemetry

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Counter struct {
	val atomic.Int64
}

func (c *Counter) Inc()         { c.val.Add(1) }
func (c *Counter) Add(n int64)  { c.val.Add(n) }
func (c *Counter) Value() int64 { return c.val.Load() }

type Gauge struct {
	val atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.val.Store(v) }
func (g *Gauge) Inc()         { g.val.Add(1) }
func (g *Gauge) Dec()         { g.val.Add(-1) }
func (g *Gauge) Value() int64 { return g.val.Load() }

type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxKeep int
}

func NewLatencyTracker(maxKeep int) *LatencyTracker {
	return &LatencyTracker{maxKeep: maxKeep}
}

func (lt *LatencyTracker) Record(d time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	lt.samples = append(lt.samples, d)
	if len(lt.samples) > lt.maxKeep {
		lt.samples = lt.samples[len(lt.samples)-lt.maxKeep:]
	}
}

func (lt *LatencyTracker) P50() time.Duration { return lt.percentile(0.50) }
func (lt *LatencyTracker) P99() time.Duration { return lt.percentile(0.99) }

func (lt *LatencyTracker) percentile(p float64) time.Duration {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if len(lt.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(lt.samples)
	slices.Sort(sorted)
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// Metrics is the global metrics registry.
var Metrics = struct {
	CollectPasses    Counter
	SettlePasses     Counter
	EventsFetched    Counter
	FetchFailures    Counter
	MatchExact       Counter
	MatchRelaxed     Counter
	MatchAmbiguous   Counter
	MatchNotFound    Counter
	ValueCandidates  Counter
	BetsCreated      Counter
	BetsDuplicate    Counter
	BetsSettled      Counter
	SettleErrors     Counter
	NotifyFailures   Counter
	ModelUnavailable Counter
	PendingBets      Gauge
	CollectLatency   *LatencyTracker
	SettleLatency    *LatencyTracker
}{
	CollectLatency: NewLatencyTracker(500),
	SettleLatency:  NewLatencyTracker(500),
}

// Registry exposes Metrics to Prometheus. Values are read at scrape time.
func Registry() *prometheus.Registry {
	reg := prometheus.NewRegistry()

	counters := []struct {
		name, help string
		c          *Counter
	}{
		{"lolvb_collect_passes_total", "Collect passes executed", &Metrics.CollectPasses},
		{"lolvb_settle_passes_total", "Settle passes executed", &Metrics.SettlePasses},
		{"lolvb_events_fetched_total", "Live events fetched from the odds source", &Metrics.EventsFetched},
		{"lolvb_fetch_failures_total", "Collaborator fetch failures", &Metrics.FetchFailures},
		{"lolvb_match_exact_total", "Exact event matches", &Metrics.MatchExact},
		{"lolvb_match_relaxed_total", "Relaxed event matches", &Metrics.MatchRelaxed},
		{"lolvb_match_ambiguous_total", "Ambiguous event matches", &Metrics.MatchAmbiguous},
		{"lolvb_match_not_found_total", "Events with no historical match", &Metrics.MatchNotFound},
		{"lolvb_value_candidates_total", "Markets flagged as value", &Metrics.ValueCandidates},
		{"lolvb_bets_created_total", "Bets inserted into the ledger", &Metrics.BetsCreated},
		{"lolvb_bets_duplicate_total", "Create attempts on an existing natural key", &Metrics.BetsDuplicate},
		{"lolvb_bets_settled_total", "Bets moved to a terminal status", &Metrics.BetsSettled},
		{"lolvb_settle_errors_total", "Per-bet settlement failures", &Metrics.SettleErrors},
		{"lolvb_notify_failures_total", "Notification delivery failures", &Metrics.NotifyFailures},
		{"lolvb_model_unavailable_total", "Markets assessed without a model prediction", &Metrics.ModelUnavailable},
	}
	for _, c := range counters {
		c := c
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(c.c.Value()) },
		))
	}

	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "lolvb_pending_bets", Help: "Bets awaiting settlement"},
		func() float64 { return float64(Metrics.PendingBets.Value()) },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "lolvb_collect_latency_p50_seconds", Help: "Median collect pass duration"},
		func() float64 { return Metrics.CollectLatency.P50().Seconds() },
	))
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "lolvb_settle_latency_p50_seconds", Help: "Median settle pass duration"},
		func() float64 { return Metrics.SettleLatency.P50().Seconds() },
	))
	return reg
}
