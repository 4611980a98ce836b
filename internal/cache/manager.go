package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/sirupsen/logrus"
)

// Manager is a read-through cache in front of a catalog data source.
// It implements api.DataSource, so the browser and the commands use it
// in place of the raw API.
//
// # Cache Validity
//
// An entry is served iff it is younger than the stale time. Anything
// older, or absent, is fetched and written back. Errors are returned
// as-is and leave the backend untouched.
type Manager struct {
	source    api.DataSource
	backend   Backend
	staleTime time.Duration
	now       func() time.Time
	log       *logrus.Entry
}

// NewManager creates a new cache manager over source.
// If backend is nil, uses a MemoryBackend. A non-positive staleTime uses
// the default of five minutes.
func NewManager(source api.DataSource, backend Backend, staleTime time.Duration) *Manager {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if staleTime <= 0 {
		staleTime = core.StaleTime
	}
	return &Manager{
		source:    source,
		backend:   backend,
		staleTime: staleTime,
		now:       time.Now,
		log:       logging.WithComponent("cache"),
	}
}

// WithClock replaces the time source, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// GetBackend returns the storage backend.
func (m *Manager) GetBackend() Backend {
	return m.backend
}

// SearchKey is the cache key for a page query evaluated at now.
func SearchKey(page, pageSize int, filter api.Filter, now time.Time) string {
	req := api.BuildSearchRequest(page, pageSize, filter, now)
	return fmt.Sprintf("%s|p=%d|n=%d|k=%q|s=%q|from=%s|to=%s",
		KindSearch, req.Page, req.PerPage, req.Keyword, req.Section,
		req.PublishDateRange.From, req.PublishDateRange.To)
}

// SearchItems returns a fresh cached page or fetches it.
func (m *Manager) SearchItems(ctx context.Context, page, pageSize int, filter api.Filter) (api.PageResult, error) {
	key := SearchKey(page, pageSize, filter, m.now())

	var result api.PageResult
	if m.lookup(key, &result) {
		return result, nil
	}

	result, err := m.source.SearchItems(ctx, page, pageSize, filter)
	if err != nil {
		m.log.WithFields(logrus.Fields{"key": key, "error": err}).Debug("fetch failed")
		return api.PageResult{}, err
	}
	m.store(KindSearch, key, result)
	return result, nil
}

// ListCategories returns the fresh cached category tree or fetches it.
func (m *Manager) ListCategories(ctx context.Context) ([]api.Category, error) {
	var result []api.Category
	if m.lookup(KindCategories, &result) {
		return result, nil
	}

	result, err := m.source.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	m.store(KindCategories, KindCategories, result)
	return result, nil
}

func (m *Manager) lookup(key string, into interface{}) bool {
	entry := m.backend.Read(key)
	if entry == nil {
		m.log.WithField("key", key).Debug("miss")
		return false
	}
	if !entry.Fresh(m.now(), m.staleTime) {
		m.log.WithFields(logrus.Fields{"key": key, "age": m.now().Sub(entry.FetchedAt)}).Debug("stale")
		return false
	}
	if err := json.Unmarshal(entry.Payload, into); err != nil {
		m.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("dropping undecodable entry")
		m.backend.Delete(key)
		return false
	}
	m.log.WithField("key", key).Debug("hit")
	return true
}

func (m *Manager) store(kind, key string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		m.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("failed to encode entry")
		return
	}
	entry := &CacheEntry{Key: key, Kind: kind, FetchedAt: m.now(), Payload: payload}
	if err := m.backend.Write(entry); err != nil {
		m.log.WithFields(logrus.Fields{"key": key, "error": err}).Warn("failed to write entry")
	}
}

// Invalidate drops every entry of kind, or every entry when kind is "".
func (m *Manager) Invalidate(kind string) int {
	removed := 0
	for key, status := range m.backend.Scan() {
		if kind != "" && status.Kind != kind {
			continue
		}
		if err := m.backend.Delete(key); err == nil {
			removed++
		}
	}
	return removed
}

// Prune drops entries that are no longer fresh and reports how many went.
func (m *Manager) Prune() int {
	now := m.now()
	removed := 0
	for key, status := range m.backend.Scan() {
		if now.Sub(status.FetchedAt) < m.staleTime {
			continue
		}
		if err := m.backend.Delete(key); err == nil {
			removed++
		}
	}
	if removed > 0 {
		m.log.WithField("removed", removed).Debug("pruned stale entries")
	}
	return removed
}
