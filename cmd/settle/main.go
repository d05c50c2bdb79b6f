package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charleschow/lol-valuebets/internal/process"
)

func main() {
	notify := flag.Bool("notify", false, "send alerts for bets settled by this run")
	flag.Parse()

	process.Run("settle", process.Options{Pipeline: true, Notify: *notify}, func(ctx context.Context, app *process.App) error {
		rep, err := app.Pipeline.Settle(ctx)
		if err != nil {
			return err
		}
		fmt.Println(rep.String())
		for _, e := range rep.ErrorStrings() {
			fmt.Println("  error:", e)
		}
		return nil
	})
}
