// Package process wires the shared infrastructure every binary needs:
// ledger storage, collaborator readers, the model client, notifiers and
// the pipeline.
package process

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charleschow/lol-valuebets/internal/adapters/inbound/history"
	"github.com/charleschow/lol-valuebets/internal/adapters/inbound/pinnacle"
	"github.com/charleschow/lol-valuebets/internal/adapters/outbound/discord"
	"github.com/charleschow/lol-valuebets/internal/adapters/outbound/model_http"
	"github.com/charleschow/lol-valuebets/internal/adapters/outbound/redis_stream"
	"github.com/charleschow/lol-valuebets/internal/adapters/outbound/sqlstore"
	"github.com/charleschow/lol-valuebets/internal/adapters/outbound/telegram"
	"github.com/charleschow/lol-valuebets/internal/config"
	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/core/pipeline"
	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

// Options selects which pieces Build wires. The alias and inspection tools
// only need storage.
type Options struct {
	Pipeline bool
	Notify   bool
}

// App is a wired process. Pipeline is nil unless Options.Pipeline was set.
type App struct {
	Cfg      *config.Config
	Bus      *events.Bus
	Store    *sqlstore.Store
	Ledger   *ledger.Ledger
	Pipeline *pipeline.Pipeline

	closers []func()
}

// Build opens storage and, per opts, the collaborators and notifiers.
// On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, opts Options) (app *App, err error) {
	app = &App{Cfg: cfg, Bus: events.NewBus()}
	defer func() {
		if err != nil {
			app.Close()
			app = nil
		}
	}()

	// ── Ledger storage ──────────────────────────────────────────
	app.Store, err = OpenStore(ctx, cfg)
	if err != nil {
		return app, err
	}
	app.onClose(func() { app.Store.Close() })
	app.Ledger = ledger.New(app.Store, app.Bus)

	if opts.Notify {
		app.wireNotifiers()
	}
	if !opts.Pipeline {
		return app, nil
	}

	// ── Collaborators ──────────────────────────────────────────
	hist, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		return app, err
	}
	app.onClose(func() { hist.Close() })

	odds, err := pinnacle.Open(cfg.PinnacleDBPath)
	if err != nil {
		return app, err
	}
	app.onClose(func() { odds.Close() })

	seed, err := SeedAliases(cfg.AliasSeedPath)
	if err != nil {
		return app, err
	}

	deps := pipeline.Deps{
		Odds:    odds,
		History: hist,
		Aliases: app.Store,
		Seed:    seed,
		Ledger:  app.Ledger,
		Bus:     app.Bus,
	}
	if cfg.ModelURL != "" {
		deps.Predictor = model_http.NewClient(cfg.ModelURL, cfg.ModelTimeout)
		telemetry.Infof("process: model service at %s", cfg.ModelURL)
	} else {
		telemetry.Infof("process: no MODEL_URL, empirical estimates only")
	}

	// ── Redis stream + pass lock ───────────────────────────────
	if cfg.RedisURL != "" {
		client, rerr := redis_stream.Connect(ctx, cfg.RedisURL)
		if rerr != nil {
			telemetry.Warnf("process: redis disabled: %v", rerr)
		} else {
			app.onClose(func() { client.Close() })
			deps.Lock = redis_stream.NewPassLock(client)
			if opts.Notify {
				redis_stream.NewPublisher(client, redis_stream.DefaultStream).Subscribe(app.Bus)
			}
		}
	}

	lookback := time.Duration(cfg.HistoryLookbackDays) * 24 * time.Hour
	app.Pipeline = pipeline.New(deps, cfg.Thresholds, lookback)
	return app, nil
}

func (a *App) wireNotifiers() {
	if d := discord.NewNotifier(a.Cfg.DiscordWebhookURL); d.Enabled() {
		d.Subscribe(a.Bus)
		telemetry.Infof("process: discord alerts enabled")
	}
	if a.Cfg.TelegramBotToken != "" && a.Cfg.TelegramChatID != 0 {
		tg, err := telegram.New(a.Cfg.TelegramBotToken, a.Cfg.TelegramChatID)
		if err != nil {
			telemetry.Warnf("process: telegram disabled: %v", err)
			return
		}
		tg.Subscribe(a.Bus)
		a.onClose(tg.Close)
	}
}

func (a *App) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// OpenStore picks Postgres when DATABASE_URL is set, SQLite otherwise.
func OpenStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	if cfg.DatabaseURL != "" {
		telemetry.Infof("process: ledger on postgres")
		return sqlstore.OpenPostgres(ctx, cfg.DatabaseURL)
	}
	telemetry.Infof("process: ledger on sqlite %s", cfg.BetsDBPath)
	return sqlstore.OpenSQLite(cfg.BetsDBPath)
}

// SeedAliases loads the operator alias file. An empty path means no seed.
func SeedAliases(path string) ([]identity.Alias, error) {
	if path == "" {
		return nil, nil
	}
	seeds, err := config.LoadAliasSeed(path)
	if err != nil {
		return nil, err
	}
	out := make([]identity.Alias, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, identity.Alias{
			Source:     s.Source,
			Kind:       identity.Kind(s.Kind),
			Raw:        s.Raw,
			Canonical:  s.Canonical,
			Confidence: s.Weight,
		})
	}
	return out, nil
}

// Run is the entry point for one-shot tools: load config, init logging,
// build the app, run fn until it returns or SIGINT/SIGTERM arrives.
func Run(name string, opts Options, fn func(ctx context.Context, app *App) error) {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := Build(ctx, cfg, opts)
	if err != nil {
		telemetry.Errorf("%s: %v", name, err)
		os.Exit(1)
	}
	err = fn(ctx, app)
	app.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
