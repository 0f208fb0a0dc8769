package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a Store backed by the kv_entries table. Expiry is evaluated inside
// the database so that concurrent workers agree on whether an entry is live.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG creates a Postgres-backed store on the given pool.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Get returns the value for key if present and not expired.
func (s *PG) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM kv_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`, key).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("kv get: %w", err)
	}
	return value, true, nil
}

// Put stores value under key, replacing any existing entry.
func (s *PG) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, key, value, expiresAt(ttl))
	if err != nil {
		return fmt.Errorf("kv put: %w", err)
	}
	return nil
}

// PutNX stores value under key only if the key is absent or its entry has
// expired. The conditional upsert makes the check-and-set a single atomic
// statement, which is what allows the fetch lock to be cluster-wide.
func (s *PG) PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var acquired string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO kv_entries (key, value, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
		WHERE kv_entries.expires_at IS NOT NULL AND kv_entries.expires_at <= now()
		RETURNING key
	`, key, value, expiresAt(ttl)).Scan(&acquired)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("kv putnx: %w", err)
	}
	return true, nil
}

// Delete removes key if present.
func (s *PG) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("kv delete: %w", err)
	}
	return nil
}

func expiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(ttl)
	return &t
}
