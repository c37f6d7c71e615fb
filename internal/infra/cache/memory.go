package cache

import (
	"context"
	"sync"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

// MemoryCache keeps entries in process memory.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]domain.CacheEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*domain.CacheEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *MemoryCache) Put(_ context.Context, entry domain.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
