package models

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ref is a reference entity with a slug (source or category).
type Ref struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Author is a reference entity without a slug.
type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RefStore lists the reference entities for the preference-selection
// endpoints.
type RefStore struct {
	pool *pgxpool.Pool
}

// NewRefStore creates a new RefStore.
func NewRefStore(pool *pgxpool.Pool) *RefStore {
	return &RefStore{pool: pool}
}

// ListSources returns all sources ordered by name.
func (s *RefStore) ListSources(ctx context.Context) ([]Ref, error) {
	return s.listSlugged(ctx, "sources")
}

// ListCategories returns all categories ordered by name.
func (s *RefStore) ListCategories(ctx context.Context) ([]Ref, error) {
	return s.listSlugged(ctx, "categories")
}

func (s *RefStore) listSlugged(ctx context.Context, table string) ([]Ref, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, name, slug FROM %s ORDER BY name`, table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var refs []Ref
	for rows.Next() {
		var r Ref
		if err := rows.Scan(&r.ID, &r.Name, &r.Slug); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ListAuthors returns all authors ordered by name.
func (s *RefStore) ListAuthors(ctx context.Context) ([]Author, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM authors ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var authors []Author
	for rows.Next() {
		var a Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan authors: %w", err)
		}
		authors = append(authors, a)
	}
	return authors, rows.Err()
}
