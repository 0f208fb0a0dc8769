// Package fetch coordinates a full ingestion run across all registered
// provider adapters: the advisory run gate, the cluster-wide run lock,
// per-adapter batch persistence, and the metrics snapshot.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mvettori/newsdesk/internal/adapters"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/news"
)

// Keys in the shared kv store. The gate marker and metrics snapshot outlive a
// run by a day; the lock lives only as long as the configured hold bound.
const (
	lastRunKey = "last_article_fetch"
	lockKey    = "article_fetch_lock"
	metricsKey = "article_fetch_metrics"

	markerTTL = 24 * time.Hour
)

// Options controls a single run. Force bypasses the run gate (but not the
// lock). Source restricts the run to adapters whose name contains the value,
// case-insensitively.
type Options struct {
	Force  bool
	Source string
}

// Summary is the orchestrator's only output. Errors holds one entry per
// failed adapter; persistence from adapters that succeeded earlier in the run
// is retained regardless.
type Summary struct {
	TotalFetched int
	TotalStored  int
	Duration     time.Duration
	Errors       []string
	Skipped      bool
}

// OK reports whether the run finished without adapter or persistence errors.
// A skipped run is OK.
func (s Summary) OK() bool { return len(s.Errors) == 0 }

// Metrics is the snapshot persisted after every run, read by the health
// check and by operators.
type Metrics struct {
	LastRun      time.Time `json:"last_run"`
	TotalFetched int       `json:"total_fetched"`
	TotalStored  int       `json:"total_stored"`
	DurationSecs float64   `json:"duration_seconds"`
	ErrorCount   int       `json:"errors_count"`
}

// BatchStorer persists one adapter's batch atomically.
type BatchStorer interface {
	StoreBatch(ctx context.Context, batch []news.CanonicalArticle) (int, error)
}

// Orchestrator runs all adapters sequentially. Adapters share no mutable
// state, so failures and rate limits stay isolated per provider.
type Orchestrator struct {
	adapters    []adapters.Adapter
	engine      BatchStorer
	state       kv.Store
	minInterval time.Duration
	lockTTL     time.Duration
	now         func() time.Time
}

// New creates an orchestrator. minInterval is the run-gate throttle; lockTTL
// bounds how long the run lock may be held by a dead worker.
func New(registry []adapters.Adapter, engine BatchStorer, state kv.Store, minInterval, lockTTL time.Duration) *Orchestrator {
	return &Orchestrator{
		adapters:    registry,
		engine:      engine,
		state:       state,
		minInterval: minInterval,
		lockTTL:     lockTTL,
		now:         time.Now,
	}
}

// Run executes one fetch cycle. It never returns an error: every failure is
// folded into the summary, and the caller's exit code is derived from OK().
func (o *Orchestrator) Run(ctx context.Context, opts Options) Summary {
	if !opts.Force {
		ok, err := o.ShouldRun(ctx)
		if err != nil {
			slog.Error("fetch: run gate check failed", "err", err)
		} else if !ok {
			slog.Info("fetch: skipping run, too soon since last run")
			return Summary{Skipped: true}
		}
	}

	acquired, err := o.state.PutNX(ctx, lockKey, o.now().UTC().Format(time.RFC3339), o.lockTTL)
	if err != nil {
		// A held lock is a normal skip; a broken kv store is not.
		slog.Error("fetch: lock acquisition failed", "err", err)
		return Summary{Errors: []string{fmt.Sprintf("lock: %v", err)}}
	}
	if !acquired {
		slog.Info("fetch: skipping run, another run holds the lock")
		return Summary{Skipped: true}
	}
	defer func() {
		if err := o.state.Delete(ctx, lockKey); err != nil {
			slog.Warn("fetch: lock release failed", "err", err)
		}
	}()

	start := o.now()
	slog.Info("fetch: starting run")

	// Record the start marker before any adapter runs so concurrent
	// invocations observe the new gate state right away.
	if err := o.state.Put(ctx, lastRunKey, start.UTC().Format(time.RFC3339), markerTTL); err != nil {
		slog.Error("fetch: record run marker", "err", err)
	}

	var summary Summary
	filter := strings.ToLower(opts.Source)

	for _, adapter := range o.adapters {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", adapter.Name(), ctx.Err()))
			break
		}
		if filter != "" && !strings.Contains(strings.ToLower(adapter.Name()), filter) {
			continue
		}

		slog.Info("fetch: running adapter", "adapter", adapter.Name())

		batch := adapter.FetchAndAdapt(ctx)
		summary.TotalFetched += len(batch)

		if len(batch) == 0 {
			slog.Warn("fetch: adapter yielded no articles", "adapter", adapter.Name())
			continue
		}

		stored, err := o.engine.StoreBatch(ctx, batch)
		if err != nil {
			// The failed batch rolled back whole; other adapters continue.
			msg := fmt.Sprintf("%s: %v", adapter.Name(), err)
			summary.Errors = append(summary.Errors, msg)
			slog.Error("fetch: batch persistence failed", "adapter", adapter.Name(), "err", err)
			continue
		}

		summary.TotalStored += stored
		slog.Info("fetch: adapter complete", "adapter", adapter.Name(), "fetched", len(batch), "stored", stored)
	}

	summary.Duration = o.now().Sub(start)
	o.writeMetrics(ctx, start, summary)

	slog.Info("fetch: run complete",
		"total_fetched", summary.TotalFetched,
		"total_stored", summary.TotalStored,
		"duration", summary.Duration.Round(time.Millisecond),
		"errors", len(summary.Errors),
	)

	return summary
}

// ShouldRun is the advisory run gate: true if no prior run is recorded or the
// configured minimum interval has elapsed since the last one. It throttles
// frequent runs; the lock is what prevents concurrent ones.
func (o *Orchestrator) ShouldRun(ctx context.Context) (bool, error) {
	raw, ok, err := o.state.Get(ctx, lastRunKey)
	if err != nil {
		return false, fmt.Errorf("fetch: read run marker: %w", err)
	}
	if !ok {
		return true, nil
	}

	lastRun, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// An unreadable marker should not wedge the schedule.
		slog.Warn("fetch: unparseable run marker, allowing run", "value", raw)
		return true, nil
	}

	return o.now().Sub(lastRun) >= o.minInterval, nil
}

// LastMetrics returns the most recent run snapshot, or nil if none is
// recorded (or it has expired).
func LastMetrics(ctx context.Context, state kv.Store) (*Metrics, error) {
	raw, ok, err := state.Get(ctx, metricsKey)
	if err != nil || !ok {
		return nil, err
	}
	var m Metrics
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("fetch: decode metrics: %w", err)
	}
	return &m, nil
}

func (o *Orchestrator) writeMetrics(ctx context.Context, start time.Time, s Summary) {
	m := Metrics{
		LastRun:      start.UTC(),
		TotalFetched: s.TotalFetched,
		TotalStored:  s.TotalStored,
		DurationSecs: s.Duration.Seconds(),
		ErrorCount:   len(s.Errors),
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		slog.Error("fetch: encode metrics", "err", err)
		return
	}
	if err := o.state.Put(ctx, metricsKey, string(encoded), markerTTL); err != nil {
		slog.Error("fetch: write metrics", "err", err)
	}
}
