package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/charleschow/lol-valuebets/internal/process"
)

func main() {
	notify := flag.Bool("notify", false, "send alerts for bets created by this run")
	asJSON := flag.Bool("json", false, "print the pass report as JSON")
	flag.Parse()

	process.Run("collect", process.Options{Pipeline: true, Notify: *notify}, func(ctx context.Context, app *process.App) error {
		rep, err := app.Pipeline.Collect(ctx)
		if err != nil {
			return err
		}
		if *asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"summary":       rep.String(),
				"alias_version": rep.AliasVersion,
				"created":       rep.Created,
				"duplicates":    rep.Duplicates,
				"errors":        rep.ErrorStrings(),
			})
		}
		fmt.Println(rep.String())
		for _, e := range rep.ErrorStrings() {
			fmt.Println("  error:", e)
		}
		return nil
	})
}
