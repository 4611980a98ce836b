package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/lansepyy/article-admin/internal/paging"
	"github.com/sirupsen/logrus"
)

// MCP Protocol types
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type MCPToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type MCPInitializeResult struct {
	ProtocolVersion string        `json:"protocolVersion"`
	ServerInfo      MCPServerInfo `json:"serverInfo"`
	Capabilities    interface{}   `json:"capabilities"`
}

// SearchItemsParams are the parameters for the search_items tool
type SearchItemsParams struct {
	Keyword   string `json:"keyword"`
	Category  string `json:"category"`
	TimeRange string `json:"time_range"`
	Page      int    `json:"page"`
	PerPage   int    `json:"per_page"`
	Raw       bool   `json:"raw"`
}

// mcpMaxPerPage bounds per_page for tool calls.
const mcpMaxPerPage = 100

// mcpServer answers JSON-RPC requests read line by line.
type mcpServer struct {
	source api.DataSource
	out    io.Writer
	ctx    context.Context
	log    *logrus.Entry
}

func newMCPServer(source api.DataSource, out io.Writer) *mcpServer {
	return &mcpServer{
		source: source,
		out:    out,
		ctx:    context.Background(),
		log:    logging.WithComponent("mcp"),
	}
}

// Serve handles requests from r until EOF. Tool calls run under ctx.
func (s *mcpServer) Serve(ctx context.Context, r io.Reader) error {
	s.ctx = ctx
	scanner := bufio.NewScanner(r)
	const maxCapacity = 10 * 1024 * 1024 // 10MB
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			// Without an ID there is nothing a client could correlate a reply with.
			s.log.WithError(err).Warn("parse error")
			continue
		}

		s.handle(&req)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

func (s *mcpServer) handle(req *MCPRequest) {
	s.log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "initialized", "notifications/initialized":
		return
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		// Notifications (no ID) never get a response.
		if req.ID != nil {
			s.sendError(req.ID, -32601, "Method not found", req.Method)
		}
	}
}

func (s *mcpServer) handleInitialize(req *MCPRequest) {
	s.sendResponse(req.ID, MCPInitializeResult{
		ProtocolVersion: "2024-11-05",
		ServerInfo: MCPServerInfo{
			Name:    "articles",
			Version: core.Version,
		},
		Capabilities: map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	})
}

func (s *mcpServer) handleToolsList(req *MCPRequest) {
	tools := []MCPToolInfo{
		{
			Name:        "search_items",
			Description: "Search the article catalog, newest first.\n\nArgs:\n    keyword: Text the title must contain (case-insensitive)\n    category: Category or sub type name\n    time_range: Publish date window - 7d, 1w, 1m, 1y or all\n    page: 1-based page number\n    per_page: Items per page (max 100)\n    raw: Return full items instead of summaries\n\nReturns:\n    The requested page with total match count and page count",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"keyword": map[string]interface{}{
						"type":        "string",
						"description": "Text the title must contain",
					},
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Category or sub type name",
					},
					"time_range": map[string]interface{}{
						"type":        "string",
						"description": "Publish date window",
						"enum":        []string{core.TimeRange7Days, core.TimeRange1Week, core.TimeRange1Month, core.TimeRange1Year, core.TimeRangeAll},
					},
					"page": map[string]interface{}{
						"type":        "integer",
						"description": "1-based page number",
						"default":     1,
					},
					"per_page": map[string]interface{}{
						"type":        "integer",
						"description": "Items per page",
						"default":     core.PageSize,
					},
					"raw": map[string]interface{}{
						"type":        "boolean",
						"description": "Return full items instead of summaries",
						"default":     false,
					},
				},
			},
		},
		{
			Name:        "list_categories",
			Description: "List catalog categories with item counts and their sub types.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}

	s.sendResponse(req.ID, map[string]interface{}{"tools": tools})
}

func (s *mcpServer) handleToolsCall(req *MCPRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params", err.Error())
		return
	}

	switch params.Name {
	case "search_items":
		s.handleSearchItems(req.ID, params.Arguments)
	case "list_categories":
		s.handleListCategories(req.ID)
	default:
		s.sendError(req.ID, -32602, "Unknown tool", params.Name)
	}
}

func (s *mcpServer) handleSearchItems(id interface{}, argsJSON json.RawMessage) {
	var args SearchItemsParams
	if len(argsJSON) > 0 {
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			s.sendToolError(id, fmt.Sprintf("Invalid arguments: %v", err))
			return
		}
	}

	if args.Page == 0 {
		args.Page = 1
	}
	if args.PerPage == 0 {
		args.PerPage = core.PageSize
	}
	if args.Page < 1 || args.PerPage < 1 || args.PerPage > mcpMaxPerPage {
		s.sendToolError(id, fmt.Sprintf("page must be >= 1 and per_page in 1..%d", mcpMaxPerPage))
		return
	}

	timeRange, err := core.NormalizeTimeRange(args.TimeRange)
	if err != nil {
		s.sendToolResult(id, map[string]interface{}{
			"error":        err.Error(),
			"valid_ranges": []string{core.TimeRange7Days, core.TimeRange1Week, core.TimeRange1Month, core.TimeRange1Year, core.TimeRangeAll},
			"time_range":   args.TimeRange,
		})
		return
	}

	filter := api.Filter{Keyword: args.Keyword, Category: args.Category, TimeRange: timeRange}
	page, err := s.source.SearchItems(s.ctx, args.Page, args.PerPage, filter)
	if err != nil {
		s.log.WithError(err).Warn("search failed")
		s.sendToolError(id, fmt.Sprintf("Search failed: %v", err))
		return
	}

	var items interface{} = page.Items
	if !args.Raw {
		items = formatItemsForDisplay(page.Items)
	}

	s.sendToolResult(id, map[string]interface{}{
		"page":        args.Page,
		"per_page":    args.PerPage,
		"total":       page.Total,
		"total_pages": paging.TotalPages(page.Total, args.PerPage),
		"items_count": len(page.Items),
		"items":       items,
	})
}

func (s *mcpServer) handleListCategories(id interface{}) {
	cats, err := s.source.ListCategories(s.ctx)
	if err != nil {
		s.log.WithError(err).Warn("category listing failed")
		s.sendToolError(id, fmt.Sprintf("Category listing failed: %v", err))
		return
	}

	total := 0
	for _, c := range cats {
		total += c.Count
	}
	s.sendToolResult(id, map[string]interface{}{
		"categories": cats,
		"total":      total,
	})
}

// formatItemsForDisplay keeps the fields a reader scans for.
func formatItemsForDisplay(items []api.Item) []map[string]interface{} {
	formatted := make([]map[string]interface{}, 0, len(items))

	for _, it := range items {
		category := it.Category
		if it.SubType != "" {
			category += "/" + it.SubType
		}
		entry := map[string]interface{}{
			"id":           it.ID,
			"title":        it.Title,
			"category":     category,
			"publish_date": it.PublishDate,
			"in_stock":     it.InStock,
			"magnet_link":  it.MagnetLink,
		}
		if len(it.PreviewImages) > 0 {
			entry["preview_image"] = it.PreviewImages[0]
			entry["preview_count"] = len(it.PreviewImages)
		}
		formatted = append(formatted, entry)
	}

	return formatted
}

func (s *mcpServer) write(resp MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.WithError(err).Error("encode response")
		return
	}
	fmt.Fprintln(s.out, string(data))
}

func (s *mcpServer) sendResponse(id interface{}, result interface{}) {
	s.write(MCPResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *mcpServer) sendError(id interface{}, code int, message, data string) {
	s.write(MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *mcpServer) sendToolResult(id interface{}, result interface{}) {
	s.sendResponse(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": mustMarshal(result),
			},
		},
	})
}

func (s *mcpServer) sendToolError(id interface{}, message string) {
	s.sendResponse(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": message,
			},
		},
		"isError": true,
	})
}

func mustMarshal(v interface{}) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(data)
}
