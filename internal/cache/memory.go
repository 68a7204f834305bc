package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when no Redis server is configured.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]memoryEntry
}

// NewMemoryCache returns an empty in-process cache. A ttl <= 0 never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]map[string]memoryEntry),
	}
}

func (m *MemoryCache) Get(_ context.Context, portfolioID, key string, dest any) (bool, error) {
	m.mu.Lock()
	entry, ok := m.entries[portfolioID][key]
	if ok && m.ttl > 0 && !m.now().Before(entry.expiresAt) {
		delete(m.entries[portfolioID], key)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(entry.data, dest); err != nil {
		return false, fmt.Errorf("can't unmarshal cache entry %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryCache) Set(_ context.Context, portfolioID, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("can't marshal cache entry: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	group, ok := m.entries[portfolioID]
	if !ok {
		group = make(map[string]memoryEntry)
		m.entries[portfolioID] = group
	}
	group[key] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context, portfolioID string) error {
	m.mu.Lock()
	delete(m.entries, portfolioID)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries held for a portfolio, expired ones included.
func (m *MemoryCache) Len(portfolioID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries[portfolioID])
}
