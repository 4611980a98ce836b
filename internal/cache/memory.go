package cache

import (
	"sync"
)

// MemoryBackend is an in-memory cache backend, the default for the browser.
type MemoryBackend struct {
	entries map[string]*CacheEntry
	mu      sync.RWMutex
}

// NewMemoryBackend creates a new in-memory cache backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]*CacheEntry),
	}
}

// Path returns a pseudo path for key.
func (b *MemoryBackend) Path(key string) string {
	return "mem://" + key
}

// Read returns a copy of the cached entry for key or nil if absent.
func (b *MemoryBackend) Read(key string) *CacheEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if entry, ok := b.entries[key]; ok {
		return entry.clone()
	}
	return nil
}

// Write stores a copy of entry.
func (b *MemoryBackend) Write(entry *CacheEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[entry.Key] = entry.clone()
	return nil
}

// Delete removes the entry for key.
func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}

// Scan returns a mapping of keys to their cache status.
func (b *MemoryBackend) Scan() map[string]CacheScanResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make(map[string]CacheScanResult, len(b.entries))
	for key, entry := range b.entries {
		result[key] = CacheScanResult{Kind: entry.Kind, FetchedAt: entry.FetchedAt}
	}
	return result
}

// Len returns the number of stored entries.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Reset clears all entries (for testing).
func (b *MemoryBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]*CacheEntry)
}

// Seed adds entries directly (for testing).
func (b *MemoryBackend) Seed(entries ...*CacheEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, entry := range entries {
		b.entries[entry.Key] = entry.clone()
	}
}
