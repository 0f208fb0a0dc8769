// Package kv provides the narrow key-value contract shared by the run gate,
// the cluster-wide fetch lock, the metrics snapshot, and the NewsAPI response
// cache. Run state deliberately lives outside the process so that multiple
// workers sharing one schedule observe the same gate and lock.
package kv

import (
	"context"
	"sync"
	"time"
)

// Store is the key-value capability used by the fetch pipeline. A zero ttl
// means the entry never expires. PutNX is the atomic check-and-set primitive
// behind the run lock: it stores the entry only if the key is absent or
// expired, and reports whether it did.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	PutNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Memory is an in-process Store used in tests and as a fallback when no
// database is available. It is safe for concurrent use.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) live(e memoryEntry) bool {
	return e.expiresAt.IsZero() || e.expiresAt.After(m.now())
}

// Get returns the value for key if present and not expired.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !m.live(e) {
		delete(m.entries, key)
		return "", false, nil
	}
	return e.value, true, nil
}

// Put stores value under key, replacing any existing entry.
func (m *Memory) Put(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return nil
}

// PutNX stores value under key only if the key is absent or expired.
func (m *Memory) PutNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && m.live(e) {
		return false, nil
	}
	m.entries[key] = memoryEntry{value: value, expiresAt: m.expiry(ttl)}
	return true, nil
}

// Delete removes key if present.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *Memory) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}
