package browse

import (
	"fmt"

	"github.com/lansepyy/article-admin/internal/api"
)

// FetchFailed reports a data-source failure for the current request of the
// active mode. Err is the data-source error.
type FetchFailed struct {
	Mode ModeKind
	Key  api.Filter
	Page int
	Err  error
}

func (e *FetchFailed) Error() string {
	return fmt.Sprintf("%s fetch of page %d failed: %v", e.Mode, e.Page, e.Err)
}

func (e *FetchFailed) Unwrap() error {
	return e.Err
}
