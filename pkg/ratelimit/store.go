package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Entry is one fixed window of attempts.
type Entry struct {
	Count        int
	ResetAt      time.Time
	FirstAttempt time.Time
}

// Expired reports whether the window has closed at now.
func (e Entry) Expired(now time.Time) bool { return now.After(e.ResetAt) }

// Store persists counters. Hit must be atomic per key: it starts a new window
// (count 1) when none exists or the current one has expired, and otherwise
// increments the count.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Entry, error)
	Peek(ctx context.Context, key string) (Entry, bool, error)
	// Decrement lowers a positive count by one; missing keys are ignored.
	Decrement(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Sweep removes windows that closed before now and reports how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Ping(ctx context.Context) error
}

// MemoryStore keeps counters in process memory. Limits are per instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Hit(_ context.Context, key string, window time.Duration, now time.Time) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || e.Expired(now) {
		e = Entry{Count: 1, ResetAt: now.Add(window), FirstAttempt: now}
	} else {
		e.Count++
	}
	m.entries[key] = e
	return e, nil
}

func (m *MemoryStore) Peek(_ context.Context, key string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *MemoryStore) Decrement(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && e.Count > 0 {
		e.Count--
		m.entries[key] = e
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.entries)
	return nil
}

func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.entries {
		if e.Expired(now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

// Len reports the number of tracked keys.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
