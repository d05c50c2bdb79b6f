package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/lol-valuebets/internal/api"
	"github.com/charleschow/lol-valuebets/internal/config"
	"github.com/charleschow/lol-valuebets/internal/fanout"
	"github.com/charleschow/lol-valuebets/internal/process"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting value-bet daemon")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Storage, collaborators, notifiers ──────────────────────
	app, err := process.Build(ctx, cfg, process.Options{Pipeline: true, Notify: true})
	if err != nil {
		telemetry.Errorf("Startup failed: %v", err)
		os.Exit(1)
	}
	defer app.Close()

	th := cfg.Thresholds
	telemetry.Infof("Thresholds  ev=%.3f  model_conf=%.2f  min_samples=%d  per_segment=%d  tol=%s/%s",
		th.EVThreshold, th.ModelConfidence, th.MinSamples, th.MaxBetsPerSegment, th.NarrowTolerance, th.WideTolerance)

	// ── Fanout ─────────────────────────────────────────────────
	fan := fanout.NewServer(app.Bus)

	// ── Ops API ────────────────────────────────────────────────
	server := api.New(api.Deps{
		Ledger:   app.Ledger,
		Aliases:  app.Store,
		Passes:   app.Pipeline,
		Registry: telemetry.Registry(),
		WS:       fan.HandleWS,
		Ping:     app.Store.Ping,
	})
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	go func() {
		if err := server.ListenAndServe(ctx, addr, cfg.CORSOrigins); err != nil {
			telemetry.Errorf("API server: %v", err)
			cancel()
		}
	}()

	// ── Scheduler ──────────────────────────────────────────────
	sched, err := process.Schedule(ctx, app.Pipeline, cfg.CollectCron, cfg.SettleCron)
	if err != nil {
		telemetry.Errorf("Scheduler: %v", err)
		os.Exit(1)
	}
	sched.Start()

	// Run once at startup so a fresh daemon doesn't wait for the first tick.
	go func() {
		if _, err := app.Pipeline.Settle(ctx); err != nil {
			telemetry.Warnf("Initial settle: %v", err)
		}
		if _, err := app.Pipeline.Collect(ctx); err != nil {
			telemetry.Warnf("Initial collect: %v", err)
		}
	}()

	// ── Shutdown ───────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	telemetry.Infof("Shutting down...")
	cancel()
	<-sched.Stop().Done()

	telemetry.Infof("Shutdown complete  collects=%d  settles=%d  bets=%d  settled=%d  pending=%d  notify_errors=%d",
		telemetry.Metrics.CollectPasses.Value(),
		telemetry.Metrics.SettlePasses.Value(),
		telemetry.Metrics.BetsCreated.Value(),
		telemetry.Metrics.BetsSettled.Value(),
		telemetry.Metrics.PendingBets.Value(),
		telemetry.Metrics.NotifyFailures.Value(),
	)
}
