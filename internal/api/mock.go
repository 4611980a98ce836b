package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/lansepyy/article-admin/internal/core"
)

// RequestLogEntry records a request made to a fake transport.
type RequestLogEntry struct {
	Method   string
	Endpoint string
	Search   *SearchRequest
}

// InMemoryTransport is a lightweight simulation of the catalog API.
// Implements search and categories, sufficient for unit testing the browser.
type InMemoryTransport struct {
	mu         sync.Mutex
	items      []Item
	failures   []error
	RequestLog []RequestLogEntry
}

// NewInMemoryTransport creates a new in-memory transport for testing.
func NewInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{}
}

// Seed adds items to the in-memory store.
func (t *InMemoryTransport) Seed(items ...Item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, items...)
}

// FailNext makes the next request return err. Calls queue up.
func (t *InMemoryTransport) FailNext(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = append(t.failures, err)
}

// RequestsMade returns the number of requests made to this transport.
func (t *InMemoryTransport) RequestsMade() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.RequestLog)
}

// Requests returns a copy of the request log.
func (t *InMemoryTransport) Requests() []RequestLogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]RequestLogEntry(nil), t.RequestLog...)
}

// Reset clears all stored items and recorded requests.
func (t *InMemoryTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = nil
	t.failures = nil
	t.RequestLog = nil
}

// Request simulates a low-level catalog API request.
func (t *InMemoryTransport) Request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := RequestLogEntry{Method: method, Endpoint: endpoint}
	if req, ok := asSearchRequest(body); ok {
		entry.Search = &req
	}
	t.RequestLog = append(t.RequestLog, entry)

	if len(t.failures) > 0 {
		err := t.failures[0]
		t.failures = t.failures[1:]
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case method == http.MethodPost && endpoint == core.SearchEndpoint:
		if entry.Search == nil {
			return nil, &APIError{StatusCode: http.StatusBadRequest, Message: "missing search body"}
		}
		return EncodeEnvelope(SearchCatalog(t.items, *entry.Search))
	case method == http.MethodGet && endpoint == core.CategoryEndpoint:
		return EncodeEnvelope(CategoryTree(t.items))
	}
	return nil, &APIError{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("no route %s %s", method, endpoint)}
}

func asSearchRequest(body interface{}) (SearchRequest, bool) {
	switch b := body.(type) {
	case SearchRequest:
		return b, true
	case *SearchRequest:
		return *b, b != nil
	}
	return SearchRequest{}, false
}

// SearchCatalog applies req to items the way the catalog service does:
// keyword is a case-insensitive title substring, section an exact match on
// category or sub type, dates inclusive. Newest first, then by id.
func SearchCatalog(items []Item, req SearchRequest) WireSearchResult {
	keyword := strings.ToLower(strings.TrimSpace(req.Keyword))

	matched := make([]Item, 0, len(items))
	for _, it := range items {
		if keyword != "" && !strings.Contains(strings.ToLower(it.Title), keyword) {
			continue
		}
		if req.Section != "" && it.Category != req.Section && it.SubType != req.Section {
			continue
		}
		date := it.PublishDate
		if len(date) > 10 {
			date = date[:10]
		}
		if req.PublishDateRange.From != "" && date < req.PublishDateRange.From {
			continue
		}
		if req.PublishDateRange.To != "" && date > req.PublishDateRange.To {
			continue
		}
		matched = append(matched, it)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].PublishDate != matched[j].PublishDate {
			return matched[i].PublishDate > matched[j].PublishDate
		}
		return matched[i].ID < matched[j].ID
	})

	result := WireSearchResult{Items: []WireItem{}, Total: len(matched)}
	if req.Page < 1 || req.PerPage < 1 {
		return result
	}
	start := (req.Page - 1) * req.PerPage
	if start >= len(matched) {
		return result
	}
	end := start + req.PerPage
	if end > len(matched) {
		end = len(matched)
	}
	for _, it := range matched[start:end] {
		result.Items = append(result.Items, FromItem(it))
	}
	return result
}

// CategoryTree counts items per category and sub type, in name order.
func CategoryTree(items []Item) []WireCategory {
	counts := make(map[string]int)
	subCounts := make(map[string]map[string]int)
	for _, it := range items {
		counts[it.Category]++
		if it.SubType == "" {
			continue
		}
		if subCounts[it.Category] == nil {
			subCounts[it.Category] = make(map[string]int)
		}
		subCounts[it.Category][it.SubType]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := make([]WireCategory, 0, len(names))
	for _, name := range names {
		cat := WireCategory{Category: name, Count: counts[name]}
		subs := make([]string, 0, len(subCounts[name]))
		for sub := range subCounts[name] {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		for _, sub := range subs {
			cat.Items = append(cat.Items, WireCategory{Category: sub, Count: subCounts[name][sub]})
		}
		tree = append(tree, cat)
	}
	return tree
}

// MockResponse is one canned reply.
type MockResponse struct {
	Body []byte
	Err  error
}

// MockTransport replays canned responses per endpoint, suitable for
// deterministic unit tests. The last response for an endpoint repeats.
type MockTransport struct {
	mu         sync.Mutex
	Fixtures   map[string][]MockResponse
	served     map[string]int
	RequestLog []RequestLogEntry
}

// NewMockTransport creates a new mock transport with the given fixtures.
func NewMockTransport(fixtures map[string][]MockResponse) *MockTransport {
	return &MockTransport{Fixtures: fixtures, served: make(map[string]int)}
}

// JSONResponse marshals v into a MockResponse body, panicking on failure.
func JSONResponse(v interface{}) MockResponse {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return MockResponse{Body: raw}
}

// Request replays the next fixture for endpoint.
func (t *MockTransport) Request(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry := RequestLogEntry{Method: method, Endpoint: endpoint}
	if req, ok := asSearchRequest(body); ok {
		entry.Search = &req
	}
	t.RequestLog = append(t.RequestLog, entry)

	responses := t.Fixtures[endpoint]
	if len(responses) == 0 {
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "no fixture for " + endpoint}
	}
	idx := t.served[endpoint]
	if idx >= len(responses) {
		idx = len(responses) - 1
	}
	t.served[endpoint]++
	return responses[idx].Body, responses[idx].Err
}
