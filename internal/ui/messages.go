// Package ui provides the Bubble Tea browser for the article catalog.
package ui

import (
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/browse"
)

// FetchResolved carries the outcome of one controller request.
type FetchResolved struct {
	Req    browse.Request
	Result api.PageResult
	Err    error
}

// KeywordSettled is sent when the typed keyword has been stable for the
// debounce delay.
type KeywordSettled struct {
	Keyword string
}

// CategoriesLoaded is sent when the category tree has been fetched.
type CategoriesLoaded struct {
	Categories []api.Category
	Err        error
}

// MagnetCopied reports the result of a clipboard write.
type MagnetCopied struct {
	ID  int64
	Err error
}

// clearStatus clears the status line if id is still the latest status.
type clearStatus struct {
	id int
}
