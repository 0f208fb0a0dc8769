package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mvettori/newsdesk/internal/news"
)

// fakeStore runs the batch function against an in-memory tx and remembers
// whether it committed or rolled back.
type fakeStore struct {
	tx        *fakeTx
	committed bool
}

type fakeTx struct {
	refs       map[string]uuid.UUID // "kind/name" -> id
	upserts    []ArticleRow
	upsertErr  error
	refErr     error
	refCreates int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tx: &fakeTx{refs: make(map[string]uuid.UUID)}}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	snapshot := len(s.tx.upserts)
	if err := fn(s.tx); err != nil {
		s.tx.upserts = s.tx.upserts[:snapshot]
		return err
	}
	s.committed = true
	return nil
}

func (t *fakeTx) FindOrCreateRef(_ context.Context, kind RefKind, name string) (uuid.UUID, error) {
	if t.refErr != nil {
		return uuid.Nil, t.refErr
	}
	key := string(kind) + "/" + name
	if id, ok := t.refs[key]; ok {
		return id, nil
	}
	id := uuid.New()
	t.refs[key] = id
	t.refCreates++
	return id, nil
}

func (t *fakeTx) UpsertArticle(_ context.Context, row ArticleRow) error {
	if t.upsertErr != nil {
		return t.upsertErr
	}
	for i, existing := range t.upserts {
		if existing.ArticleURL == row.ArticleURL {
			t.upserts[i] = row
			return nil
		}
	}
	t.upserts = append(t.upserts, row)
	return nil
}

func ts(hour int) *time.Time {
	t := time.Date(2024, 3, 15, hour, 0, 0, 0, time.UTC)
	return &t
}

func article(url, title string, published *time.Time) news.CanonicalArticle {
	return news.CanonicalArticle{
		SourceName:   "Wired",
		AuthorName:   "Jane Doe",
		CategoryName: "Technology",
		Title:        title,
		Description:  "desc",
		ArticleURL:   url,
		PublishedAt:  published,
	}
}

func TestStoreBatch(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	batch := []news.CanonicalArticle{
		article("https://example.com/a", "A", ts(10)),
		article("https://example.com/b", "B", ts(11)),
	}

	stored, err := engine.StoreBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}
	if stored != 2 {
		t.Errorf("stored = %d, want 2", stored)
	}
	if !store.committed {
		t.Error("batch did not commit")
	}
	// Same source/author/category across the batch resolve to one row each.
	if store.tx.refCreates != 3 {
		t.Errorf("refCreates = %d, want 3", store.tx.refCreates)
	}

	row := store.tx.upserts[0]
	if row.SourceID == uuid.Nil || row.AuthorID == uuid.Nil || row.CategoryID == uuid.Nil {
		t.Error("reference ids not resolved")
	}
	if !row.PublishedAt.Equal(*ts(10)) {
		t.Errorf("PublishedAt = %v, want %v", row.PublishedAt, *ts(10))
	}
}

func TestStoreBatchIdempotent(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	batch := []news.CanonicalArticle{article("https://example.com/a", "A", ts(10))}

	if _, err := engine.StoreBatch(context.Background(), batch); err != nil {
		t.Fatalf("first StoreBatch: %v", err)
	}

	batch[0].Title = "A updated"
	stored, err := engine.StoreBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("second StoreBatch: %v", err)
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1", stored)
	}
	if len(store.tx.upserts) != 1 {
		t.Fatalf("row count = %d, want 1 (same URL must not duplicate)", len(store.tx.upserts))
	}
	if store.tx.upserts[0].Title != "A updated" {
		t.Errorf("Title = %q, want the re-fetched record to replace the old one", store.tx.upserts[0].Title)
	}
}

func TestStoreBatchDiscardsIncompleteRecords(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store)

	batch := []news.CanonicalArticle{
		article("", "no url", ts(10)),
		article("https://example.com/no-title", "", ts(10)),
		article("https://example.com/no-date", "No date", nil),
		article("https://example.com/ok", "OK", ts(10)),
	}

	stored, err := engine.StoreBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("StoreBatch: %v", err)
	}
	if stored != 1 {
		t.Errorf("stored = %d, want 1", stored)
	}
	if len(store.tx.upserts) != 1 || store.tx.upserts[0].ArticleURL != "https://example.com/ok" {
		t.Errorf("persisted rows = %v, want only the complete record", store.tx.upserts)
	}
}

func TestStoreBatchRollsBackWhole(t *testing.T) {
	store := newFakeStore()
	store.tx.upsertErr = errors.New("disk full")
	engine := NewEngine(store)

	batch := []news.CanonicalArticle{
		article("https://example.com/a", "A", ts(10)),
		article("https://example.com/b", "B", ts(11)),
	}

	stored, err := engine.StoreBatch(context.Background(), batch)
	if err == nil {
		t.Fatal("StoreBatch succeeded, want error")
	}
	if stored != 0 {
		t.Errorf("stored = %d, want 0 on rollback", stored)
	}
	if len(store.tx.upserts) != 0 {
		t.Errorf("%d rows survived a rolled-back batch", len(store.tx.upserts))
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want the cause wrapped", err)
	}
}

func TestStoreBatchRefResolutionFailure(t *testing.T) {
	store := newFakeStore()
	store.tx.refErr = errors.New("constraint violation")
	engine := NewEngine(store)

	_, err := engine.StoreBatch(context.Background(), []news.CanonicalArticle{
		article("https://example.com/a", "A", ts(10)),
	})
	if err == nil {
		t.Fatal("StoreBatch succeeded, want error")
	}
	if !strings.Contains(err.Error(), "resolve source") {
		t.Errorf("error = %v, want resolve source context", err)
	}
}
