// Package api provides the HTTP client and types for the article catalog API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lansepyy/article-admin/internal/core"
)

// Filter is the user-facing query over the catalog. Zero fields mean
// "no constraint" on that dimension.
type Filter struct {
	Keyword   string `json:"keyword"`
	Category  string `json:"category"`
	TimeRange string `json:"time_range,omitempty"` // "", 7d, 1w, 1m or 1y
}

// IsEmpty reports whether f constrains nothing.
func (f Filter) IsEmpty() bool {
	return f.Keyword == "" && f.Category == "" && f.TimeRange == ""
}

// Key is a stable string form of f, suitable for cache keys.
func (f Filter) Key() string {
	return fmt.Sprintf("k=%q|c=%q|t=%s", f.Keyword, f.Category, f.TimeRange)
}

// Item is one catalog entry. ID is unique within a result page.
type Item struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	SubType       string   `json:"sub_type,omitempty"`
	PublishDate   string   `json:"publish_date"`
	PreviewImages []string `json:"preview_images"`
	Size          *float64 `json:"size,omitempty"`
	InStock       bool     `json:"in_stock"`
	MagnetLink    string   `json:"magnet_link"`
	DetailURL     string   `json:"detail_url,omitempty"`
}

// Category is a catalog section with its item count and optional children.
type Category struct {
	Name          string     `json:"name"`
	Count         int        `json:"count"`
	Subcategories []Category `json:"subcategories,omitempty"`
}

// PageResult is one page of matches. Total counts matches across all pages.
type PageResult struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// DataSource is the catalog as seen by the browser.
type DataSource interface {
	SearchItems(ctx context.Context, page, pageSize int, filter Filter) (PageResult, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

// Transport performs one API call and returns the raw response body.
// body is JSON-encoded when non-nil.
type Transport interface {
	Request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error)
}

// DateRange is the wire form of an expanded time range. Both fields are
// omitted when unconstrained, which encodes as {}.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// SearchRequest is the body of POST /articles/search.
type SearchRequest struct {
	Page             int       `json:"page"`
	PerPage          int       `json:"per_page"`
	Keyword          string    `json:"keyword"`
	Section          string    `json:"section"`
	PublishDateRange DateRange `json:"publish_date_range"`
}

// Envelope wraps every API response.
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// WireItem is an item as the API sends it.
type WireItem struct {
	TID           int64    `json:"tid"`
	Title         string   `json:"title"`
	Section       string   `json:"section"`
	PublishDate   string   `json:"publish_date"`
	Magnet        string   `json:"magnet"`
	PreviewImages string   `json:"preview_images"`
	SubType       string   `json:"sub_type"`
	Size          *float64 `json:"size"`
	InStock       bool     `json:"in_stock"`
	DetailURL     string   `json:"detail_url"`
}

// WireSearchResult is the data payload of a search response.
type WireSearchResult struct {
	Items []WireItem `json:"items"`
	Total int        `json:"total"`
}

// WireCategory is a category as the API sends it.
type WireCategory struct {
	Category string         `json:"category"`
	Count    int            `json:"count"`
	Items    []WireCategory `json:"items,omitempty"`
}

// ToItem decodes the transport form, splitting the comma-joined image list.
func (w WireItem) ToItem() Item {
	return Item{
		ID:            w.TID,
		Title:         w.Title,
		Category:      w.Section,
		SubType:       w.SubType,
		PublishDate:   w.PublishDate,
		PreviewImages: core.SplitList(w.PreviewImages),
		Size:          w.Size,
		InStock:       w.InStock,
		MagnetLink:    w.Magnet,
		DetailURL:     w.DetailURL,
	}
}

// FromItem is the inverse of ToItem.
func FromItem(it Item) WireItem {
	return WireItem{
		TID:           it.ID,
		Title:         it.Title,
		Section:       it.Category,
		PublishDate:   it.PublishDate,
		Magnet:        it.MagnetLink,
		PreviewImages: strings.Join(it.PreviewImages, ","),
		SubType:       it.SubType,
		Size:          it.Size,
		InStock:       it.InStock,
		DetailURL:     it.DetailURL,
	}
}

// ToCategory decodes the transport form recursively.
func (w WireCategory) ToCategory() Category {
	c := Category{Name: w.Category, Count: w.Count}
	for _, sub := range w.Items {
		c.Subcategories = append(c.Subcategories, sub.ToCategory())
	}
	return c
}

// FromCategory is the inverse of ToCategory.
func FromCategory(c Category) WireCategory {
	w := WireCategory{Category: c.Name, Count: c.Count}
	for _, sub := range c.Subcategories {
		w.Items = append(w.Items, FromCategory(sub))
	}
	return w
}
