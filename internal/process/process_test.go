package process

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charleschow/lol-valuebets/internal/config"
	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
)

func emptyDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE placeholder (id INTEGER)`); err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Thresholds:          config.DefaultThresholds(),
		BetsDBPath:          filepath.Join(dir, "ledger", "bets.db"),
		HistoryDBPath:       filepath.Join(dir, "history.db"),
		PinnacleDBPath:      filepath.Join(dir, "pinnacle.db"),
		HistoryLookbackDays: 30,
	}
}

func TestBuildStorageOnly(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t), Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.Store == nil || app.Ledger == nil {
		t.Fatal("storage not wired")
	}
	if app.Pipeline != nil {
		t.Error("pipeline wired without Options.Pipeline")
	}
}

func TestBuildPipeline(t *testing.T) {
	cfg := testConfig(t)
	emptyDB(t, cfg.HistoryDBPath)
	emptyDB(t, cfg.PinnacleDBPath)

	app, err := Build(context.Background(), cfg, Options{Pipeline: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()
	if app.Pipeline == nil {
		t.Fatal("pipeline not wired")
	}
	if app.Pipeline.Predictor != nil || app.Pipeline.Lock != nil {
		t.Error("optional collaborators wired without config")
	}
}

func TestBuildFailsOnMissingArchive(t *testing.T) {
	cfg := testConfig(t)
	app, err := Build(context.Background(), cfg, Options{Pipeline: true})
	if err == nil {
		app.Close()
		t.Fatal("expected error for missing history db")
	}
	if app != nil {
		t.Error("app returned alongside error")
	}
}

func TestSeedAliases(t *testing.T) {
	if got, err := SeedAliases(""); err != nil || got != nil {
		t.Fatalf("empty path = %v, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	yaml := "teams:\n  GENG: Gen.G\nleagues:\n  LCK Korea: LCK\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := SeedAliases(path)
	if err != nil {
		t.Fatalf("SeedAliases: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("aliases = %+v", got)
	}
	for _, a := range got {
		if a.Source != identity.SourceManual || a.Confidence != 1 {
			t.Errorf("alias %+v: want manual source, confidence 1", a)
		}
		if a.Raw == "GENG" && (a.Kind != identity.KindTeam || a.Canonical != "Gen.G") {
			t.Errorf("team alias = %+v", a)
		}
	}
}

type countingRunner struct{ collects, settles atomic.Int32 }

func (r *countingRunner) Collect(context.Context) (pipeline.Report, error) {
	r.collects.Add(1)
	return pipeline.Report{}, nil
}

func (r *countingRunner) Settle(context.Context) (pipeline.Report, error) {
	r.settles.Add(1)
	return pipeline.Report{}, nil
}

func TestScheduleRunsPasses(t *testing.T) {
	r := &countingRunner{}
	c, err := Schedule(context.Background(), r, "* * * * * *", "off")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	c.Start()
	defer c.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for r.collects.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if r.collects.Load() == 0 {
		t.Fatal("collect never ran")
	}
	if r.settles.Load() != 0 {
		t.Error("settle ran while disabled")
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	if _, err := Schedule(context.Background(), &countingRunner{}, "every minute", ""); err == nil {
		t.Fatal("expected error for bad cron spec")
	}
}
