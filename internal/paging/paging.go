// Package paging holds the page arithmetic shared by the browser and the
// non-interactive commands.
package paging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Ellipsis marks a collapsed run of pages in a compressed range.
const Ellipsis = -1

// ErrInvalidPage is returned for page-jump input that is not a page number
// inside [1, totalPages].
var ErrInvalidPage = errors.New("invalid page")

// Label is one slot of a pagination bar: a page number or Ellipsis.
type Label int

// IsEllipsis reports whether l stands for a collapsed run.
func (l Label) IsEllipsis() bool { return l == Ellipsis }

func (l Label) String() string {
	if l.IsEllipsis() {
		return "…"
	}
	return strconv.Itoa(int(l))
}

// Compress returns the labels to render for current out of total pages,
// keeping siblings pages on each side of current. Ranges short enough to
// show in full are returned unabridged. The first label is always 1 and
// the last is always total.
func Compress(current, total, siblings int) []Label {
	if total <= 0 {
		return []Label{}
	}
	if siblings < 0 {
		siblings = 0
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	// Anchors at both ends, current, and one ellipsis slot per side.
	totalNumbers := 2*siblings + 3
	totalBlocks := totalNumbers + 2
	if total <= totalBlocks {
		return span(1, total)
	}

	left := max(current-siblings, 1)
	right := min(current+siblings, total)
	showLeftDots := left > 2
	showRightDots := right < total-1

	switch {
	case !showLeftDots && showRightDots:
		out := span(1, 1+totalNumbers)
		return append(out, Ellipsis, Label(total))
	case showLeftDots && !showRightDots:
		out := []Label{1, Ellipsis}
		return append(out, span(total-totalNumbers+1, total)...)
	default:
		out := []Label{1, Ellipsis}
		out = append(out, span(left, right)...)
		return append(out, Ellipsis, Label(total))
	}
}

func span(from, to int) []Label {
	out := make([]Label, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, Label(i))
	}
	return out
}

// TotalPages is the number of pages needed for total items, at least 0.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ParseJump validates typed page-jump input.
func ParseJump(input string, totalPages int) (int, error) {
	s := strings.TrimSpace(input)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidPage, s)
	}
	if n < 1 || n > totalPages {
		return 0, fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidPage, n, totalPages)
	}
	return n, nil
}

// Clamp bounds page to [1, totalPages]; with no pages it returns 1.
func Clamp(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
