package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charleschow/lol-valuebets/internal/core/ledger"
	"github.com/charleschow/lol-valuebets/internal/process"
)

func main() {
	status := flag.String("status", "", "filter by status (pending, won, lost, void)")
	league := flag.String("league", "", "filter by canonical league")
	since := flag.Duration("since", 0, "only bets created within this window (e.g. 72h)")
	n := flag.Int("n", 20, "max results to return")
	pretty := flag.Bool("pretty", false, "pretty-print full bet JSON")
	stats := flag.Bool("stats", false, "print ledger stats instead of bets")
	flag.Parse()

	process.Run("inspect_bets", process.Options{}, func(ctx context.Context, app *process.App) error {
		if *stats {
			st, err := app.Ledger.Stats(ctx)
			if err != nil {
				return err
			}
			out, _ := json.MarshalIndent(st, "", "  ")
			fmt.Println(string(out))
			return nil
		}

		f := ledger.Filter{League: *league, Limit: *n}
		if *status != "" {
			st, err := ledger.ParseStatus(*status)
			if err != nil {
				return err
			}
			f.Status = st
		}
		if *since > 0 {
			f.Since = time.Now().Add(-*since)
		}

		bets, err := app.Store.List(ctx, f)
		if err != nil {
			return err
		}
		for _, b := range bets {
			if *pretty {
				out, _ := json.MarshalIndent(b, "", "  ")
				fmt.Printf("--- %s ---\n%s\n\n", b.ID, out)
				continue
			}
			s := b.Snapshot()
			fmt.Printf("%s  %-8s %-7s %-28s %-34s @%.2f  ev=%+.3f  %s\n",
				b.CreatedAt.Format("2006-01-02 15:04"), s.Status, s.League, s.Matchup(), s.Market(), s.Price, s.EV, s.Method)
		}
		if len(bets) == 0 {
			fmt.Fprintln(os.Stderr, "(no bets found)")
		} else {
			fmt.Fprintf(os.Stderr, "(%d results)\n", len(bets))
		}
		return nil
	})
}
