// Package ingest reconciles batches of canonical articles with persisted
// state: it resolves reference entities (source, author, category) by name,
// creating them lazily, and upserts articles keyed by their URL.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mvettori/newsdesk/internal/news"
)

// RefKind names one of the three reference-entity tables.
type RefKind string

const (
	RefSource   RefKind = "source"
	RefAuthor   RefKind = "author"
	RefCategory RefKind = "category"
)

// ArticleRow is the persisted shape handed to the store. Category and author
// are nullable in the schema but the engine always resolves them, matching
// the lazily created "Unknown"/"General" reference rows.
type ArticleRow struct {
	SourceID    uuid.UUID
	CategoryID  uuid.UUID
	AuthorID    uuid.UUID
	Title       string
	Description string
	ArticleURL  string
	ImageURL    *string
	PublishedAt time.Time
}

// Tx is the per-batch transactional surface the engine writes through.
// FindOrCreateRef resolves a reference row by exact name, creating it (with a
// collision-resolved slug for sources and categories) if absent. UpsertArticle
// inserts or updates the row keyed by article_url, preserving id and
// created_at on update.
type Tx interface {
	FindOrCreateRef(ctx context.Context, kind RefKind, name string) (uuid.UUID, error)
	UpsertArticle(ctx context.Context, row ArticleRow) error
}

// Store opens one atomic unit per adapter batch. If fn returns an error the
// whole batch is rolled back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Engine is the sole writer of article rows.
type Engine struct {
	store Store
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// StoreBatch persists one adapter's batch as a single atomic unit and returns
// the number of articles written. Records missing a URL, title, or timestamp
// are discarded before persistence and not counted. On error nothing from
// this batch is persisted; batches from other adapters are unaffected.
func (e *Engine) StoreBatch(ctx context.Context, batch []news.CanonicalArticle) (int, error) {
	stored := 0

	err := e.store.WithTx(ctx, func(tx Tx) error {
		stored = 0
		for _, ca := range batch {
			if ca.ArticleURL == "" || ca.Title == "" {
				slog.Debug("ingest: discarding incomplete record", "url", ca.ArticleURL)
				continue
			}
			if ca.PublishedAt == nil {
				slog.Debug("ingest: discarding record without timestamp", "url", ca.ArticleURL)
				continue
			}

			sourceID, err := tx.FindOrCreateRef(ctx, RefSource, ca.SourceName)
			if err != nil {
				return fmt.Errorf("resolve source %q: %w", ca.SourceName, err)
			}
			authorID, err := tx.FindOrCreateRef(ctx, RefAuthor, ca.AuthorName)
			if err != nil {
				return fmt.Errorf("resolve author %q: %w", ca.AuthorName, err)
			}
			categoryID, err := tx.FindOrCreateRef(ctx, RefCategory, ca.CategoryName)
			if err != nil {
				return fmt.Errorf("resolve category %q: %w", ca.CategoryName, err)
			}

			row := ArticleRow{
				SourceID:    sourceID,
				CategoryID:  categoryID,
				AuthorID:    authorID,
				Title:       ca.Title,
				Description: ca.Description,
				ArticleURL:  ca.ArticleURL,
				ImageURL:    ca.ImageURL,
				PublishedAt: *ca.PublishedAt,
			}
			if err := tx.UpsertArticle(ctx, row); err != nil {
				return fmt.Errorf("upsert %s: %w", ca.ArticleURL, err)
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return stored, nil
}
