// Package cache provides the staleness-window query cache for catalog data.
//
// # Overview
//
// Every successful search page and category listing is stored as a
// CacheEntry keyed by the exact query that produced it. An entry younger
// than the stale time is served without contacting the catalog; an older
// entry is refetched and overwritten. Failed fetches are never stored, so a
// retry always refetches cleanly.
//
// # Cache Keys
//
// Search keys carry the page, page size, keyword, section and the expanded
// date bounds, so a relative time range ("7d") computed yesterday never
// matches the same range computed today:
//
//	search|p=2|n=10|k="go"|s="books"|from=2024-07-08|to=2024-07-15
//	categories
//
// # Backends
//
// MemoryBackend keeps entries for the life of the process. FilesystemBackend
// stores one JSON file per key under ~/.articles/cache/<kind>/<hh>/<hash>.json
// and writes atomically via temp file + rename.
package cache

import (
	"encoding/json"
	"time"
)

// Entry kinds.
const (
	KindSearch     = "search"
	KindCategories = "categories"
)

// CacheEntry is one cached query result.
//
// Fields:
//   - Key: the full query key (see package docs)
//   - Kind: KindSearch or KindCategories, used for on-disk layout and scans
//   - FetchedAt: when the payload was received from the catalog
//   - Payload: the JSON-encoded result (api.PageResult or []api.Category)
type CacheEntry struct {
	Key       string          `json:"key"`
	Kind      string          `json:"kind"`
	FetchedAt time.Time       `json:"fetched_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Fresh reports whether e is younger than staleTime at now.
func (e *CacheEntry) Fresh(now time.Time, staleTime time.Duration) bool {
	return now.Sub(e.FetchedAt) < staleTime
}

// clone returns a deep copy so callers never share payload bytes.
func (e *CacheEntry) clone() *CacheEntry {
	c := *e
	c.Payload = append(json.RawMessage(nil), e.Payload...)
	return &c
}

// Backend is the interface for cache storage backends.
type Backend interface {
	// Read returns the cached entry for key or nil if absent.
	Read(key string) *CacheEntry

	// Write persists the entry, replacing any previous entry for its key.
	Write(entry *CacheEntry) error

	// Delete removes the entry for key. Deleting an absent key is not an error.
	Delete(key string) error

	// Scan returns the status of every stored entry, by key.
	Scan() map[string]CacheScanResult

	// Path returns where the entry for key lives (for debugging).
	Path(key string) string
}

// CacheScanResult holds the result of scanning a cache entry.
type CacheScanResult struct {
	Kind      string
	FetchedAt time.Time
}
