package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lansepyy/article-admin/internal/core"
)

var fixedNow = time.Date(2024, time.July, 15, 9, 0, 0, 0, time.UTC)

func TestBuildSearchRequestEncoding(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "unconstrained range encodes as empty object",
			filter: Filter{},
			want:   `{"page":1,"per_page":10,"keyword":"","section":"","publish_date_range":{}}`,
		},
		{
			name:   "week range",
			filter: Filter{Keyword: "go", Category: "books", TimeRange: "1w"},
			want:   `{"page":1,"per_page":10,"keyword":"go","section":"books","publish_date_range":{"from":"2024-07-08","to":"2024-07-15"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(BuildSearchRequest(1, 10, tt.filter, fixedNow))
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("got  %s\nwant %s", raw, tt.want)
			}
		})
	}
}

func TestSearchItemsDecodesItems(t *testing.T) {
	size := 1.5
	transport := NewMockTransport(map[string][]MockResponse{
		core.SearchEndpoint: {JSONResponse(map[string]interface{}{
			"code": 200,
			"data": WireSearchResult{
				Items: []WireItem{{TID: 7, Title: "T", Section: "books", PreviewImages: " a.jpg, ,b.jpg", Magnet: "magnet:?xt=1", Size: &size, InStock: true}},
				Total: 31,
			},
		})},
	})

	got, err := NewArticleAPI(transport).WithClock(func() time.Time { return fixedNow }).
		SearchItems(context.Background(), 4, 10, Filter{Keyword: "x", TimeRange: "7d"})
	if err != nil {
		t.Fatalf("SearchItems failed: %v", err)
	}
	if got.Total != 31 || len(got.Items) != 1 {
		t.Fatalf("Unexpected result %+v", got)
	}
	it := got.Items[0]
	if it.ID != 7 || it.Category != "books" || it.MagnetLink != "magnet:?xt=1" || !it.InStock || *it.Size != 1.5 {
		t.Errorf("Unexpected item %+v", it)
	}
	if len(it.PreviewImages) != 2 || it.PreviewImages[1] != "b.jpg" {
		t.Errorf("Expected split preview images, got %v", it.PreviewImages)
	}

	sent := transport.RequestLog[0].Search
	if sent == nil || sent.Page != 4 || sent.PublishDateRange.From != "2024-07-08" {
		t.Errorf("Unexpected request %+v", sent)
	}
}

func TestSearchItemsEnvelopeError(t *testing.T) {
	transport := NewMockTransport(map[string][]MockResponse{
		core.SearchEndpoint: {JSONResponse(Envelope{Code: 500, Message: "index offline"})},
	})

	_, err := NewArticleAPI(transport).SearchItems(context.Background(), 1, 10, Filter{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "index offline" {
		t.Errorf("Expected envelope APIError, got %v", err)
	}
}

func TestSearchItemsRejectsBadArguments(t *testing.T) {
	transport := NewInMemoryTransport()
	a := NewArticleAPI(transport)
	if _, err := a.SearchItems(context.Background(), 0, 10, Filter{}); err == nil {
		t.Error("Expected error for page 0")
	}
	if _, err := a.SearchItems(context.Background(), 1, 0, Filter{}); err == nil {
		t.Error("Expected error for page size 0")
	}
	if transport.RequestsMade() != 0 {
		t.Errorf("Invalid arguments must not reach the transport, got %d requests", transport.RequestsMade())
	}
}

func TestListCategoriesDecodesTree(t *testing.T) {
	transport := NewMockTransport(map[string][]MockResponse{
		core.CategoryEndpoint: {JSONResponse(map[string]interface{}{
			"code": 0,
			"data": []WireCategory{
				{Category: "books", Count: 5, Items: []WireCategory{{Category: "fiction", Count: 3}}},
				{Category: "music", Count: 2},
			},
		})},
	})

	cats, err := NewArticleAPI(transport).ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(cats) != 2 || cats[0].Name != "books" || cats[0].Subcategories[0].Name != "fiction" {
		t.Errorf("Unexpected categories %+v", cats)
	}
	if len(cats[1].Subcategories) != 0 {
		t.Errorf("Expected no subcategories for music, got %+v", cats[1].Subcategories)
	}
	if transport.RequestLog[0].Method != http.MethodGet {
		t.Errorf("Expected GET for categories, got %s", transport.RequestLog[0].Method)
	}
}

func TestFilterKeyDistinguishesFields(t *testing.T) {
	a := Filter{Keyword: "a|c=b"}
	b := Filter{Keyword: "a", Category: "b"}
	if a.Key() == b.Key() {
		t.Errorf("Keys collide: %s", a.Key())
	}
	if !(Filter{}).IsEmpty() || b.IsEmpty() {
		t.Error("IsEmpty misreports")
	}
}
