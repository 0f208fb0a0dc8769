// Command worker runs the Newsdesk background ingestion pipeline. It
// periodically fetches articles from the configured news providers, persists
// them idempotently, and prunes old rows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/mvettori/newsdesk/internal/adapters"
	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/db"
	"github.com/mvettori/newsdesk/internal/fetch"
	"github.com/mvettori/newsdesk/internal/ingest"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/models"
)

// retentionDays is how long articles are kept before the nightly cleanup
// removes them.
const retentionDays = 30

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("worker: starting newsdesk worker")

	_ = godotenv.Load()
	cfg := config.Load()

	if missing := cfg.Validate(); len(missing) > 0 {
		for _, m := range missing {
			slog.Warn("worker: missing configuration", "key", m)
		}
	}

	// Create a root context that is cancelled on shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the database.
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("worker: database connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	state := kv.NewPG(pool)
	engine := ingest.NewEngine(ingest.NewPGStore(pool))
	articleStore := models.NewArticleStore(pool)

	orch := fetch.New(
		adapters.Registry(cfg, state),
		engine,
		state,
		cfg.Fetch.MinInterval,
		cfg.Fetch.LockTTL,
	)

	// Track in-flight jobs for graceful shutdown.
	var wg sync.WaitGroup

	// Set up cron scheduler (standard 5-field cron expressions).
	c := cron.New()

	// Fetch: every 15 minutes. The run gate and lock decide whether a given
	// tick actually does work.
	_, err = c.AddFunc("*/15 * * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()

		slog.Info("cron: fetch job triggered")
		orch.Run(jobCtx, fetch.Options{})
	})
	if err != nil {
		slog.Error("worker: add fetch cron", "err", err)
		os.Exit(1)
	}

	// Article cleanup: daily at 2am.
	_, err = c.AddFunc("0 2 * * *", func() {
		wg.Add(1)
		defer wg.Done()

		jobCtx, jobCancel := context.WithTimeout(ctx, 30*time.Minute)
		defer jobCancel()

		slog.Info("cron: cleanup job triggered")
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		deleted, err := articleStore.DeleteOlderThan(jobCtx, cutoff)
		if err != nil {
			slog.Error("cron: cleanup failed", "err", err)
			return
		}
		slog.Info("cron: cleanup complete", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	})
	if err != nil {
		slog.Error("worker: add cleanup cron", "err", err)
		os.Exit(1)
	}

	// Start the cron scheduler.
	c.Start()
	slog.Info("worker: cron scheduler started",
		"jobs", len(c.Entries()),
	)

	// Run an initial fetch on startup so we don't wait for the first tick.
	wg.Add(1)
	go func() {
		defer wg.Done()

		// Small delay to let everything settle.
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return
		}

		jobCtx, jobCancel := context.WithTimeout(ctx, 10*time.Minute)
		defer jobCancel()

		slog.Info("worker: running initial fetch on startup")
		orch.Run(jobCtx, fetch.Options{})
	}()

	// ── Graceful Shutdown ──────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	slog.Info("worker: received shutdown signal", "signal", sig.String())

	// Stop accepting new cron jobs.
	slog.Info("worker: stopping cron scheduler")
	cronCtx := c.Stop()

	// Cancel the root context to signal all in-flight jobs to stop.
	cancel()

	// Wait for the cron scheduler to finish its currently running jobs.
	select {
	case <-cronCtx.Done():
		slog.Info("worker: cron scheduler stopped")
	case <-time.After(30 * time.Second):
		slog.Warn("worker: cron scheduler stop timed out")
	}

	// Wait for all in-flight goroutines.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("worker: all in-flight jobs complete")
	case <-time.After(60 * time.Second):
		slog.Warn("worker: timed out waiting for in-flight jobs")
	}

	// Close the database pool.
	pool.Close()
	slog.Info("worker: shutdown complete")
}
