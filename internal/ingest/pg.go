package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvettori/newsdesk/internal/news"
)

// refTables maps a RefKind to its table and whether the table carries a slug
// column. Authors have no slug.
var refTables = map[RefKind]struct {
	table   string
	hasSlug bool
}{
	RefSource:   {"sources", true},
	RefAuthor:   {"authors", false},
	RefCategory: {"categories", true},
}

// PGStore runs each batch inside a pgx transaction. The unique constraint on
// articles.article_url is the ultimate backstop against duplicates; reference
// name races are absorbed with insert-on-conflict-ignore plus re-select.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store on the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// WithTx implements Store.
func (s *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ingest: begin tx: %w", err)
	}
	defer pgtx.Rollback(ctx)

	if err := fn(&pgTx{tx: pgtx}); err != nil {
		return err
	}

	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("ingest: commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

// FindOrCreateRef implements Tx. Reference rows are created lazily on first
// observation and never updated afterwards.
func (t *pgTx) FindOrCreateRef(ctx context.Context, kind RefKind, name string) (uuid.UUID, error) {
	meta, ok := refTables[kind]
	if !ok {
		return uuid.Nil, fmt.Errorf("unknown ref kind %q", kind)
	}
	if name == "" {
		name = news.Unknown
	}

	var id uuid.UUID
	err := t.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, meta.table), name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != pgx.ErrNoRows {
		return uuid.Nil, fmt.Errorf("find %s: %w", meta.table, err)
	}

	id = uuid.New()
	if meta.hasSlug {
		slug, err := news.ResolveSlugCollision(news.Slugify(name), func(candidate string) (bool, error) {
			var taken bool
			err := t.tx.QueryRow(ctx,
				fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1)`, meta.table), candidate).Scan(&taken)
			return taken, err
		})
		if err != nil {
			return uuid.Nil, fmt.Errorf("resolve slug for %s: %w", meta.table, err)
		}

		err = t.tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, name, slug) VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		`, meta.table), id, name, slug).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return uuid.Nil, fmt.Errorf("create %s: %w", meta.table, err)
		}
	} else {
		err = t.tx.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, name) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
			RETURNING id
		`, meta.table), id, name).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != pgx.ErrNoRows {
			return uuid.Nil, fmt.Errorf("create %s: %w", meta.table, err)
		}
	}

	// A concurrent transaction created the row between our select and insert.
	err = t.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, meta.table), name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reselect %s: %w", meta.table, err)
	}
	return id, nil
}

// UpsertArticle implements Tx. Re-ingestion of a known URL updates the
// mutable fields and foreign keys; id and created_at are untouched.
func (t *pgTx) UpsertArticle(ctx context.Context, row ArticleRow) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO articles (id, source_id, category_id, author_id, title,
		                      description, article_url, image_url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (article_url) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			category_id = EXCLUDED.category_id,
			author_id = EXCLUDED.author_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			published_at = EXCLUDED.published_at,
			updated_at = now()
	`,
		uuid.New(), row.SourceID, row.CategoryID, row.AuthorID, row.Title,
		row.Description, row.ArticleURL, row.ImageURL, row.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert article: %w", err)
	}
	return nil
}
