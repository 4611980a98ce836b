package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lansepyy/article-admin/internal/core"
)

// ArticleAPI provides a typed convenience layer over the catalog REST API.
// It implements DataSource.
type ArticleAPI struct {
	transport Transport
	now       func() time.Time
}

// NewArticleAPI creates a new high-level API client over transport.
func NewArticleAPI(transport Transport) *ArticleAPI {
	return &ArticleAPI{transport: transport, now: time.Now}
}

// WithClock replaces the time source used to expand time ranges.
func (a *ArticleAPI) WithClock(now func() time.Time) *ArticleAPI {
	a.now = now
	return a
}

// BuildSearchRequest encodes a page query. The time range is expanded
// relative to now in now's location.
func BuildSearchRequest(page, pageSize int, filter Filter, now time.Time) SearchRequest {
	from, to := core.EncodeTimeRange(filter.TimeRange, now)
	return SearchRequest{
		Page:             page,
		PerPage:          pageSize,
		Keyword:          filter.Keyword,
		Section:          filter.Category,
		PublishDateRange: DateRange{From: from, To: to},
	}
}

// SearchItems fetches one page of items matching filter.
func (a *ArticleAPI) SearchItems(ctx context.Context, page, pageSize int, filter Filter) (PageResult, error) {
	if page < 1 {
		return PageResult{}, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if pageSize < 1 {
		return PageResult{}, fmt.Errorf("page size must be > 0, got %d", pageSize)
	}

	body := BuildSearchRequest(page, pageSize, filter, a.now())
	raw, err := a.transport.Request(ctx, http.MethodPost, core.SearchEndpoint, body)
	if err != nil {
		return PageResult{}, err
	}

	var data WireSearchResult
	if err := decodeEnvelope(raw, &data); err != nil {
		return PageResult{}, err
	}

	result := PageResult{Items: make([]Item, 0, len(data.Items)), Total: data.Total}
	for _, w := range data.Items {
		result.Items = append(result.Items, w.ToItem())
	}
	return result, nil
}

// ListCategories fetches the category tree with item counts.
func (a *ArticleAPI) ListCategories(ctx context.Context) ([]Category, error) {
	raw, err := a.transport.Request(ctx, http.MethodGet, core.CategoryEndpoint, nil)
	if err != nil {
		return nil, err
	}

	var data []WireCategory
	if err := decodeEnvelope(raw, &data); err != nil {
		return nil, err
	}

	categories := make([]Category, 0, len(data))
	for _, w := range data {
		categories = append(categories, w.ToCategory())
	}
	return categories, nil
}

// decodeEnvelope unwraps {code, message, data}. Codes 0 and 200 are success.
func decodeEnvelope(raw []byte, data interface{}) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if env.Code != 0 && env.Code != http.StatusOK {
		return &APIError{StatusCode: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, data); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// EncodeEnvelope builds a success envelope around data.
func EncodeEnvelope(data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Code: 0, Message: "ok", Data: raw})
}
