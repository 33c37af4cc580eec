package cache

import (
	"context"
	"sync"
	"time"

	"github.com/kelarsco/sneaklink-sub001/internal/catalog"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process catalog.Cache with per-entry TTLs. Expired
// entries are dropped lazily on read and swept opportunistically on write.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   catalog.Clock
}

// NewMemory builds an empty in-process cache.
func NewMemory(clock catalog.Clock) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		clock:   clock,
	}
}

// Get returns the cached value and whether it was present and unexpired.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", false, nil
	}
	if m.clock.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set stores value under key for ttl. A non-positive ttl removes the key.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl <= 0 {
		delete(m.entries, key)
		return nil
	}
	now := m.clock.Now()
	m.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	m.sweepLocked(now)
	return nil
}

// sweepLocked drops expired entries. Caller holds the lock.
func (m *Memory) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
		}
	}
}
