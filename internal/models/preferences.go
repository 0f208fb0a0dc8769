package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Preferences holds a user's preferred reference-entity ids. Empty sets mean
// the user wants the unfiltered feed.
type Preferences struct {
	SourceIDs   []uuid.UUID `json:"source_ids"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	AuthorIDs   []uuid.UUID `json:"author_ids"`
}

// PreferenceStore persists per-user preference sets. Authentication and
// session handling live outside this service; callers supply the user id.
type PreferenceStore struct {
	pool *pgxpool.Pool
}

// NewPreferenceStore creates a new PreferenceStore.
func NewPreferenceStore(pool *pgxpool.Pool) *PreferenceStore {
	return &PreferenceStore{pool: pool}
}

// Get returns the user's preference sets. A user without stored preferences
// gets empty sets, not an error.
func (s *PreferenceStore) Get(ctx context.Context, userID uuid.UUID) (Preferences, error) {
	var prefs Preferences

	queries := []struct {
		sql  string
		dest *[]uuid.UUID
	}{
		{`SELECT source_id FROM user_preferred_sources WHERE user_id = $1`, &prefs.SourceIDs},
		{`SELECT category_id FROM user_preferred_categories WHERE user_id = $1`, &prefs.CategoryIDs},
		{`SELECT author_id FROM user_preferred_authors WHERE user_id = $1`, &prefs.AuthorIDs},
	}

	for _, q := range queries {
		rows, err := s.pool.Query(ctx, q.sql, userID)
		if err != nil {
			return Preferences{}, fmt.Errorf("preferences get: %w", err)
		}
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return Preferences{}, fmt.Errorf("preferences scan: %w", err)
			}
			*q.dest = append(*q.dest, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return Preferences{}, fmt.Errorf("preferences rows: %w", err)
		}
	}

	return prefs, nil
}

// Replace swaps the user's preference sets for the given ones atomically,
// creating the user row if this is their first write.
func (s *PreferenceStore) Replace(ctx context.Context, userID uuid.UUID, prefs Preferences) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("preferences replace: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return fmt.Errorf("preferences replace: ensure user: %w", err)
	}

	steps := []struct {
		deleteSQL string
		insertSQL string
		ids       []uuid.UUID
	}{
		{
			`DELETE FROM user_preferred_sources WHERE user_id = $1`,
			`INSERT INTO user_preferred_sources (user_id, source_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			prefs.SourceIDs,
		},
		{
			`DELETE FROM user_preferred_categories WHERE user_id = $1`,
			`INSERT INTO user_preferred_categories (user_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			prefs.CategoryIDs,
		},
		{
			`DELETE FROM user_preferred_authors WHERE user_id = $1`,
			`INSERT INTO user_preferred_authors (user_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			prefs.AuthorIDs,
		},
	}

	for _, step := range steps {
		if _, err := tx.Exec(ctx, step.deleteSQL, userID); err != nil {
			return fmt.Errorf("preferences replace: clear: %w", err)
		}
		for _, id := range step.ids {
			if _, err := tx.Exec(ctx, step.insertSQL, userID, id); err != nil {
				return fmt.Errorf("preferences replace: insert: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("preferences replace: commit: %w", err)
	}
	return nil
}
