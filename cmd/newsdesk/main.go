// Command newsdesk is the operator CLI: one-off fetch runs, article cleanup,
// and configuration validation.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mvettori/newsdesk/internal/adapters"
	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/db"
	"github.com/mvettori/newsdesk/internal/fetch"
	"github.com/mvettori/newsdesk/internal/ingest"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/models"
)

const usage = `Usage: newsdesk <command> [flags]

Commands:
  fetch     run one fetch cycle across the configured providers
  cleanup   delete articles older than the retention window
  validate  check that provider configuration is complete
  diagnose  probe each provider with a live request
`

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()

	switch os.Args[1] {
	case "fetch":
		os.Exit(runFetch(cfg, os.Args[2:]))
	case "cleanup":
		os.Exit(runCleanup(cfg, os.Args[2:]))
	case "validate":
		os.Exit(runValidate(cfg))
	case "diagnose":
		os.Exit(runDiagnose(cfg))
	default:
		fmt.Fprintf(os.Stderr, "newsdesk: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func runFetch(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	source := fs.String("source", "", "only run adapters whose name contains this value")
	force := fs.Bool("force", false, "bypass the run gate")
	fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("fetch: database connection failed", "err", err)
		return 1
	}
	defer pool.Close()

	state := kv.NewPG(pool)
	engine := ingest.NewEngine(ingest.NewPGStore(pool))
	orch := fetch.New(
		adapters.Registry(cfg, state),
		engine,
		state,
		cfg.Fetch.MinInterval,
		cfg.Fetch.LockTTL,
	)

	summary := orch.Run(ctx, fetch.Options{Force: *force, Source: *source})
	if summary.Skipped {
		fmt.Println("fetch skipped")
		return 0
	}

	fmt.Printf("fetched %d articles, stored %d in %s\n",
		summary.TotalFetched, summary.TotalStored, summary.Duration.Round(time.Millisecond))
	if !summary.OK() {
		for _, e := range summary.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return 1
	}
	return 0
}

// articlePruner is the slice of the article store the cleanup command needs.
type articlePruner interface {
	CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

func runCleanup(cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	days := fs.Int("days", 30, "delete articles published more than this many days ago")
	dryRun := fs.Bool("dry-run", false, "report how many articles would be deleted without deleting")
	fs.Parse(args)

	if *days < 1 {
		fmt.Fprintln(os.Stderr, "cleanup: -days must be at least 1")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("cleanup: database connection failed", "err", err)
		return 1
	}
	defer pool.Close()

	return cleanup(ctx, models.NewArticleStore(pool), *days, *dryRun, os.Stdout)
}

// cleanup runs the retention pass. A dry run only counts; it must never reach
// the delete path.
func cleanup(ctx context.Context, store articlePruner, days int, dryRun bool, out io.Writer) int {
	cutoff := time.Now().AddDate(0, 0, -days)

	if dryRun {
		count, err := store.CountOlderThan(ctx, cutoff)
		if err != nil {
			slog.Error("cleanup: count failed", "err", err)
			return 1
		}
		fmt.Fprintf(out, "would delete %d articles published before %s\n", count, cutoff.Format(time.RFC3339))
		return 0
	}

	deleted, err := store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("cleanup: delete failed", "err", err)
		return 1
	}
	fmt.Fprintf(out, "deleted %d articles published before %s\n", deleted, cutoff.Format(time.RFC3339))
	return 0
}

func runDiagnose(cfg config.Config) int {
	if missing := cfg.Validate(); len(missing) > 0 {
		for _, m := range missing {
			fmt.Fprintf(os.Stderr, "missing: %s\n", m)
		}
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// The NewsAPI response cache needs a kv store; an in-process one keeps the
	// probe independent of the database.
	return diagnose(ctx, adapters.Registry(cfg, kv.NewMemory()), os.Stdout)
}

// diagnose issues one live request per adapter and reports whether each
// provider answered with articles.
func diagnose(ctx context.Context, registry []adapters.Adapter, out io.Writer) int {
	exit := 0
	for _, a := range registry {
		batch := a.FetchAndAdapt(ctx)
		if len(batch) == 0 {
			fmt.Fprintf(out, "%-10s unreachable or returned no articles\n", a.Name())
			exit = 1
			continue
		}
		fmt.Fprintf(out, "%-10s ok, %d articles\n", a.Name(), len(batch))
	}
	return exit
}

func runValidate(cfg config.Config) int {
	missing := cfg.Validate()
	if len(missing) == 0 {
		fmt.Println("configuration ok: all providers configured")
		return 0
	}
	for _, m := range missing {
		fmt.Fprintf(os.Stderr, "missing: %s\n", m)
	}
	return 1
}
