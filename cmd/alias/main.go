package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charleschow/lol-valuebets/internal/core/identity"
	"github.com/charleschow/lol-valuebets/internal/process"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  go run ./cmd/alias list [-kind team|league]")
	fmt.Fprintln(os.Stderr, "  go run ./cmd/alias set -kind team -raw GENG -canonical Gen.G [-source manual]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	kind := fs.String("kind", "", "team or league")
	raw := fs.String("raw", "", "spelling as seen in a source")
	canonical := fs.String("canonical", "", "canonical name")
	source := fs.String("source", identity.SourceManual, "alias source")
	_ = fs.Parse(os.Args[2:])

	switch os.Args[1] {
	case "list":
		process.Run("alias", process.Options{}, func(ctx context.Context, app *process.App) error {
			aliases, version, err := app.Store.Aliases(ctx)
			if err != nil {
				return err
			}
			sort.Slice(aliases, func(i, j int) bool {
				if aliases[i].Kind != aliases[j].Kind {
					return aliases[i].Kind < aliases[j].Kind
				}
				return aliases[i].Raw < aliases[j].Raw
			})
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tRAW\tCANONICAL\tSOURCE\tCONF")
			for _, a := range aliases {
				if *kind != "" && string(a.Kind) != *kind {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\n", a.Kind, a.Raw, a.Canonical, a.Source, a.Confidence)
			}
			tw.Flush()
			fmt.Printf("(alias version %d)\n", version)
			return nil
		})
	case "set":
		if *raw == "" || *canonical == "" || (*kind != string(identity.KindTeam) && *kind != string(identity.KindLeague)) {
			usage()
		}
		process.Run("alias", process.Options{}, func(ctx context.Context, app *process.App) error {
			changed, err := app.Store.UpsertAlias(ctx, identity.Alias{
				Source:     *source,
				Kind:       identity.Kind(*kind),
				Raw:        *raw,
				Canonical:  *canonical,
				Confidence: 1,
			})
			if err != nil {
				return err
			}
			_, version, err := app.Store.Aliases(ctx)
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("%s %q -> %q (alias version %d)\n", *kind, *raw, *canonical, version)
			} else {
				fmt.Printf("unchanged (alias version %d)\n", version)
			}
			return nil
		})
	default:
		usage()
	}
}
