package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charleschow/lol-valuebets/internal/config"
	"github.com/charleschow/lol-valuebets/internal/events"
	"github.com/charleschow/lol-valuebets/internal/fanout"
	"github.com/charleschow/lol-valuebets/internal/telemetry"
)

func main() {
	cfg := config.Load()
	addr := flag.String("addr", fmt.Sprintf("localhost:%d", cfg.APIPort), "daemon host:port")
	league := flag.String("league", "", "only show this league")
	flag.Parse()

	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	bus.Subscribe(events.EventBetCreated, func(e events.Event) error {
		p := e.Payload.(events.BetCreatedEvent)
		b := p.Bet
		fmt.Printf("%s  NEW      %-7s %-28s %-34s @%.2f  ev=%+.3f  %s\n",
			e.Timestamp.Local().Format("15:04:05"), b.League, b.Matchup(), b.Market(), b.Price, b.EV, b.Method)
		return nil
	})
	bus.Subscribe(events.EventBetSettled, func(e events.Event) error {
		p := e.Payload.(events.BetSettledEvent)
		b := p.Bet
		fmt.Printf("%s  %-8s %-7s %-28s %-34s @%.2f\n",
			e.Timestamp.Local().Format("15:04:05"), p.NewStatus, b.League, b.Matchup(), b.Market(), b.Price)
		return nil
	})
	bus.Subscribe(events.EventPassCompleted, func(e events.Event) error {
		p := e.Payload.(events.PassCompletedEvent)
		fmt.Printf("%s  -- %s pass (aliases v%d) %s  created=%d settled=%d errors=%d\n",
			e.Timestamp.Local().Format("15:04:05"), p.Pass, p.AliasVersion, p.Duration, p.Created, p.Settled, len(p.Errors))
		return nil
	})

	client := fanout.NewClient(*addr, *league, bus)
	client.OnState = func(connected bool, err error) {
		if connected {
			fmt.Printf("-- following %s\n", *addr)
			return
		}
		fmt.Printf("-- feed lost: %v\n", err)
	}
	client.ConnectWithRetry(ctx)
}
