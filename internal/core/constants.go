// Package core provides shared constants and helpers for the articles CLI.
package core

import (
	"os"
	"path/filepath"
	"time"
)

// API configuration
const (
	DefaultAPIBaseURL = "http://localhost:8080"
	APIBaseURLEnvVar  = "ARTICLES_API_BASE_URL"
	SearchEndpoint    = "articles/search"
	CategoryEndpoint  = "articles/categories"
)

// Date formats
const (
	APIDateFmt = "2006-01-02"
)

// Pagination
const (
	PageSize     = 10
	SiblingCount = 1
)

// Freshness and input timing
const (
	StaleTime     = 5 * time.Minute
	DebounceDelay = 300 * time.Millisecond
)

// Layout thresholds
const (
	// CompactBreakpoint is the viewport width, in logical pixels, below which
	// the compact (infinite scroll) layout is used.
	CompactBreakpoint = 768
	// CellWidthPx approximates one terminal column in logical pixels.
	CellWidthPx = 8
	// SentinelThreshold is the visible fraction of the sentinel that counts
	// as "entered the viewport".
	SentinelThreshold = 0.1
)

// Export workers
const (
	ExportMaxWorkers = 3
)

// Time range selectors accepted by the catalog filter.
const (
	TimeRange7Days  = "7d"
	TimeRange1Week  = "1w"
	TimeRange1Month = "1m"
	TimeRange1Year  = "1y"
	TimeRangeAll    = "all"
)

// StateRoot returns the default directory for logs and the on-disk cache.
func StateRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".articles")
}

// CacheRoot returns the default cache directory path.
func CacheRoot() string {
	return filepath.Join(StateRoot(), "cache")
}

// Version is the current CLI version.
const Version = "0.3.0"
