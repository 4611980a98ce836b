// Package browse reconciles filter input, debounced keywords and the
// viewport class into one paged result set.
//
// The Controller is a plain state machine. Every transition returns the
// fetches it wants issued as Requests; the host runs them asynchronously and
// reports each outcome through Resolve. Outcomes for requests that have been
// superseded are dropped on arrival, which is the only form of cancellation.
package browse

import (
	"fmt"

	"github.com/lansepyy/article-admin/internal/api"
)

// ModeKind names a fetch strategy.
type ModeKind int

const (
	// Discrete fetches one numbered page at a time (wide layouts).
	Discrete ModeKind = iota
	// Cumulative appends consecutive pages from 1 upward (compact layouts).
	Cumulative
)

func (k ModeKind) String() string {
	switch k {
	case Discrete:
		return "discrete"
	case Cumulative:
		return "cumulative"
	}
	return fmt.Sprintf("ModeKind(%d)", int(k))
}

// FetchMode is the active strategy together with its position:
// a DiscreteMode page or the CumulativeMode accumulated pages.
type FetchMode interface {
	Kind() ModeKind
	isFetchMode()
}

// DiscreteMode is the page-based strategy at Page.
type DiscreteMode struct {
	Page int
}

// CumulativeMode is the append strategy holding Pages fetched so far.
type CumulativeMode struct {
	Pages []api.PageResult
}

func (DiscreteMode) Kind() ModeKind   { return Discrete }
func (CumulativeMode) Kind() ModeKind { return Cumulative }
func (DiscreteMode) isFetchMode()     {}
func (CumulativeMode) isFetchMode()   {}

// Loaded returns the number of items across all accumulated pages.
func (m CumulativeMode) Loaded() int {
	n := 0
	for _, p := range m.Pages {
		n += len(p.Items)
	}
	return n
}
