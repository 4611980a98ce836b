package browse

import (
	"context"

	"github.com/lansepyy/article-admin/internal/api"
)

// Request is one fetch the controller wants issued. Gen identifies it;
// Resolve uses it to drop superseded outcomes.
type Request struct {
	Mode     ModeKind
	Filter   api.Filter // keyword already replaced by the debounced one
	Page     int
	PageSize int
	Gen      uint64
}

// Execute runs req against src.
func Execute(ctx context.Context, src api.DataSource, req Request) (api.PageResult, error) {
	return src.SearchItems(ctx, req.Page, req.PageSize, req.Filter)
}
