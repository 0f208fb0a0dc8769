// Package models provides data access for the persisted entities: articles,
// the reference tables they point at, and per-user preference sets.
package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Article is the read-layer view of a persisted article, joined with its
// reference entities. Category and author are nullable.
type Article struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ArticleURL   string    `json:"article_url"`
	ImageURL     *string   `json:"image_url,omitempty"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	SourceName   string    `json:"source_name"`
	SourceSlug   string    `json:"source_slug"`
	CategoryName *string   `json:"category_name,omitempty"`
	CategorySlug *string   `json:"category_slug,omitempty"`
	AuthorName   *string   `json:"author_name,omitempty"`
}

// Filters narrows an article listing. Zero values mean "no filter". Page and
// PerPage are assumed already clamped by the caller.
type Filters struct {
	Keyword  string
	Date     time.Time
	DateFrom time.Time
	DateTo   time.Time
	Category string // category slug
	Source   string // source slug
	Author   string // author display name
	Page     int
	PerPage  int
}

// ArticleStore provides read and maintenance queries over articles. All
// writes go through the ingest engine, never through this store.
type ArticleStore struct {
	pool *pgxpool.Pool
}

// NewArticleStore creates a new ArticleStore.
func NewArticleStore(pool *pgxpool.Pool) *ArticleStore {
	return &ArticleStore{pool: pool}
}

const articleSelect = `
	SELECT articles.id, articles.title, articles.description, articles.article_url,
	       articles.image_url, articles.published_at, articles.created_at, articles.updated_at,
	       sources.name, sources.slug, categories.name, categories.slug, authors.name
	FROM articles
	JOIN sources ON articles.source_id = sources.id
	LEFT JOIN categories ON articles.category_id = categories.id
	LEFT JOIN authors ON articles.author_id = authors.id
`

const articleCount = `
	SELECT COUNT(*)
	FROM articles
	JOIN sources ON articles.source_id = sources.id
	LEFT JOIN categories ON articles.category_id = categories.id
	LEFT JOIN authors ON articles.author_id = authors.id
`

// scannable is an interface for pgx Row and Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*Article, error) {
	var a Article
	var description *string
	if err := row.Scan(
		&a.ID, &a.Title, &description, &a.ArticleURL,
		&a.ImageURL, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
		&a.SourceName, &a.SourceSlug, &a.CategoryName, &a.CategorySlug, &a.AuthorName,
	); err != nil {
		return nil, err
	}
	if description != nil {
		a.Description = *description
	}
	return &a, nil
}

// Search returns a filtered, paginated article listing together with the
// total match count. Keyword search uses the trigger-maintained tsvector.
func (s *ArticleStore) Search(ctx context.Context, f Filters) ([]Article, int, error) {
	var conditions []string
	var args []any
	argN := 1

	add := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argN))
		args = append(args, value)
		argN++
	}

	if f.Keyword != "" {
		add("articles.search_vector @@ plainto_tsquery('english', $%d)", f.Keyword)
	}
	if !f.Date.IsZero() {
		add("articles.published_at::date = $%d::date", f.Date)
	}
	if !f.DateFrom.IsZero() {
		add("articles.published_at::date >= $%d::date", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("articles.published_at::date <= $%d::date", f.DateTo)
	}
	if f.Category != "" {
		add("categories.slug = $%d", f.Category)
	}
	if f.Source != "" {
		add("sources.slug = $%d", f.Source)
	}
	if f.Author != "" {
		add("authors.name = $%d", f.Author)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return s.page(ctx, where, args, argN, f.Page, f.PerPage)
}

// UserFeed returns the personalized listing for a user: articles matching any
// of the user's preferred sources, categories, or authors. A user with no
// preferences gets the unfiltered feed.
func (s *ArticleStore) UserFeed(ctx context.Context, prefs Preferences, page, perPage int) ([]Article, int, error) {
	var conditions []string
	var args []any
	argN := 1

	if len(prefs.SourceIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("articles.source_id = ANY($%d)", argN))
		args = append(args, prefs.SourceIDs)
		argN++
	}
	if len(prefs.CategoryIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("articles.category_id = ANY($%d)", argN))
		args = append(args, prefs.CategoryIDs)
		argN++
	}
	if len(prefs.AuthorIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("articles.author_id = ANY($%d)", argN))
		args = append(args, prefs.AuthorIDs)
		argN++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE (" + strings.Join(conditions, " OR ") + ")"
	}

	return s.page(ctx, where, args, argN, page, perPage)
}

func (s *ArticleStore) page(ctx context.Context, where string, args []any, argN, page, perPage int) ([]Article, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, articleCount+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("article count: %w", err)
	}

	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}

	q := fmt.Sprintf(`%s %s
		ORDER BY articles.published_at DESC, articles.id DESC
		LIMIT $%d OFFSET $%d
	`, articleSelect, where, argN, argN+1)
	args = append(args, perPage, (page-1)*perPage)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("article search: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("article scan: %w", err)
		}
		articles = append(articles, *a)
	}

	return articles, total, rows.Err()
}

// CountOlderThan returns how many articles were published before cutoff.
// Used by the cleanup dry-run.
func (s *ArticleStore) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM articles WHERE published_at < $1`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("article count older than: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes articles published before cutoff and returns how
// many were deleted. Reference entities are left in place.
func (s *ArticleStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM articles WHERE published_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("article delete older than: %w", err)
	}
	return tag.RowsAffected(), nil
}
