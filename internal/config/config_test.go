package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	if th.EVThreshold != 0.05 {
		t.Errorf("EVThreshold = %v, want 0.05", th.EVThreshold)
	}
	if th.ModelConfidence != 0.65 {
		t.Errorf("ModelConfidence = %v, want 0.65", th.ModelConfidence)
	}
	if th.MinSamples != 5 || th.MaxBetsPerSegment != 3 {
		t.Errorf("MinSamples=%d MaxBetsPerSegment=%d, want 5 and 3", th.MinSamples, th.MaxBetsPerSegment)
	}
	if th.NarrowTolerance != 6*time.Hour || th.WideTolerance != 24*time.Hour {
		t.Errorf("tolerances = %v/%v, want 6h/24h", th.NarrowTolerance, th.WideTolerance)
	}
}

func TestLoadThresholdsEnvOverride(t *testing.T) {
	t.Setenv("EV_THRESHOLD", "0.08")
	t.Setenv("MAX_BETS_PER_SEGMENT", "2")
	t.Setenv("MATCH_DATE_TOLERANCE_WIDE", "36")
	t.Setenv("MATCH_DATE_TOLERANCE_NARROW", "90m")

	th := LoadThresholds()
	if th.EVThreshold != 0.08 {
		t.Errorf("EVThreshold = %v, want 0.08", th.EVThreshold)
	}
	if th.MaxBetsPerSegment != 2 {
		t.Errorf("MaxBetsPerSegment = %d, want 2", th.MaxBetsPerSegment)
	}
	if th.WideTolerance != 36*time.Hour {
		t.Errorf("WideTolerance = %v, want 36h", th.WideTolerance)
	}
	if th.NarrowTolerance != 90*time.Minute {
		t.Errorf("NarrowTolerance = %v, want 90m", th.NarrowTolerance)
	}
}

func TestEnvListTrims(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " http://a , ,http://b")
	got := envList("CORS_ORIGINS", nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Errorf("envList = %q", got)
	}
}

func TestLoadAliasSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	body := `
leagues:
  LCK Cup: LCK
teams:
  T1 Esports: T1
entries:
  - source: pinnacle
    kind: team
    raw: "Gen.G Esports"
    canonical: "Gen.G"
    confidence: 0.9
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	seeds, err := LoadAliasSeed(path)
	if err != nil {
		t.Fatalf("LoadAliasSeed: %v", err)
	}
	if len(seeds) != 3 {
		t.Fatalf("got %d seeds, want 3", len(seeds))
	}
	byRaw := map[string]AliasSeed{}
	for _, s := range seeds {
		byRaw[s.Raw] = s
	}
	if s := byRaw["LCK Cup"]; s.Kind != "league" || s.Canonical != "LCK" || s.Source != "manual" {
		t.Errorf("LCK Cup seed = %+v", s)
	}
	if s := byRaw["Gen.G Esports"]; s.Source != "pinnacle" || s.Weight != 0.9 {
		t.Errorf("Gen.G seed = %+v", s)
	}
}

func TestLoadAliasSeedRejectsBadKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("entries:\n  - kind: player\n    raw: a\n    canonical: b\n"), 0o644)
	if _, err := LoadAliasSeed(path); err == nil {
		t.Fatal("expected error for kind=player")
	}
}
