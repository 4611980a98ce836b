package browse

import (
	"github.com/lansepyy/article-admin/internal/api"
)

// FilterState holds the current filter and discrete page number. It is
// changed only through its transitions.
type FilterState struct {
	filter api.Filter
	page   int
}

// NewFilterState returns the initial state: empty filter, page 1.
func NewFilterState() FilterState {
	return FilterState{page: 1}
}

// Filter returns the current filter, with the raw keyword.
func (s FilterState) Filter() api.Filter { return s.filter }

// Page returns the current discrete page.
func (s FilterState) Page() int { return s.page }

// SetFilter replaces the filter. The page goes back to 1 only in discrete
// mode; cumulative mode has no page counter to reset.
func (s *FilterState) SetFilter(f api.Filter, mode ModeKind) {
	s.filter = f
	if mode == Discrete {
		s.page = 1
	}
}

// SetKeyword replaces only the raw keyword and keeps the page.
func (s *FilterState) SetKeyword(k string) {
	s.filter.Keyword = k
}

// FirstPage returns to page 1 in discrete mode.
func (s *FilterState) FirstPage(mode ModeKind) {
	if mode == Discrete {
		s.page = 1
	}
}

// Reset clears the filter, with the same page rule as SetFilter.
func (s *FilterState) Reset(mode ModeKind) {
	s.SetFilter(api.Filter{}, mode)
}

// SetPage moves to page n. It reports false, leaving the state unchanged,
// outside discrete mode, when n is outside [1, totalPages], or when n is
// already the current page.
func (s *FilterState) SetPage(n, totalPages int, mode ModeKind) bool {
	if mode != Discrete || n < 1 || n > totalPages || n == s.page {
		return false
	}
	s.page = n
	return true
}
