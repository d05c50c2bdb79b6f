package telemetry

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLatencyTrackerPercentiles(t *testing.T) {
	lt := NewLatencyTracker(3)
	for _, ms := range []int{50, 10, 30, 20} {
		lt.Record(time.Duration(ms) * time.Millisecond)
	}
	// oldest sample (50ms) was evicted
	if got := lt.P50(); got != 20*time.Millisecond {
		t.Errorf("P50 = %v, want 20ms", got)
	}
	if got := lt.P99(); got != 20*time.Millisecond {
		t.Errorf("P99 = %v, want 20ms", got)
	}
}

func TestRegistryGathersCounters(t *testing.T) {
	Metrics.BetsCreated.Add(2)
	reg := Registry()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "lolvb_bets_created_total" {
			found = true
			if v := f.GetMetric()[0].GetCounter().GetValue(); v < 2 {
				t.Errorf("bets_created = %v, want >= 2", v)
			}
		}
	}
	if !found {
		t.Fatal("lolvb_bets_created_total not registered")
	}
}

func TestPrettyHandlerRendersAttrs(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, slog.LevelDebug)
	L().With("pass", "collect").Warn("fetch failed", "source", "pinnacle")

	out := buf.String()
	for _, want := range []string{"WARN: fetch failed", "pass=collect", "source=pinnacle"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
