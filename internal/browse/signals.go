package browse

import (
	"sync"

	"github.com/lansepyy/article-admin/internal/core"
)

// ViewportClassifier reports whether the layout is compact.
type ViewportClassifier interface {
	Compact() bool
	Subscribe(func(compact bool)) (unsubscribe func())
}

// VisibilitySensor reports when the sentinel enters or leaves the viewport.
type VisibilitySensor interface {
	Visible() bool
	Subscribe(func(visible bool)) (unsubscribe func())
}

// signal is a boolean with change subscribers.
type signal struct {
	mu    sync.Mutex
	value bool
	next  int
	subs  map[int]func(bool)
}

func (s *signal) get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *signal) subscribe(f func(bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(bool))
	}
	id := s.next
	s.next++
	s.subs[id] = f
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// set stores v and notifies subscribers synchronously if it changed.
func (s *signal) set(v bool) {
	s.mu.Lock()
	if s.value == v {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := make([]func(bool), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()

	for _, f := range subs {
		f(v)
	}
}

// Breakpoint classifies a terminal width. The layout is compact when
// cols*cellWidth is below breakpoint logical pixels.
type Breakpoint struct {
	breakpoint int
	cellWidth  int
	sig        signal
}

// NewBreakpoint returns a classifier; zero arguments use the defaults
// (768 logical pixels, 8 per column).
func NewBreakpoint(breakpoint, cellWidth int) *Breakpoint {
	if breakpoint <= 0 {
		breakpoint = core.CompactBreakpoint
	}
	if cellWidth <= 0 {
		cellWidth = core.CellWidthPx
	}
	return &Breakpoint{breakpoint: breakpoint, cellWidth: cellWidth}
}

// IsCompact classifies cols without changing state.
func (b *Breakpoint) IsCompact(cols int) bool {
	return cols*b.cellWidth < b.breakpoint
}

// Resize re-evaluates the class for a new width.
func (b *Breakpoint) Resize(cols int) {
	b.sig.set(b.IsCompact(cols))
}

func (b *Breakpoint) Compact() bool { return b.sig.get() }

func (b *Breakpoint) Subscribe(f func(bool)) func() { return b.sig.subscribe(f) }

// Sentinel turns a visible fraction into visibility at a threshold.
type Sentinel struct {
	threshold float64
	sig       signal
}

// NewSentinel returns a sensor; a non-positive threshold uses 0.1.
func NewSentinel(threshold float64) *Sentinel {
	if threshold <= 0 {
		threshold = core.SentinelThreshold
	}
	return &Sentinel{threshold: threshold}
}

// Observe records the visible fraction (0..1) of the sentinel.
func (s *Sentinel) Observe(fraction float64) {
	s.sig.set(fraction >= s.threshold)
}

func (s *Sentinel) Visible() bool { return s.sig.get() }

func (s *Sentinel) Subscribe(f func(bool)) func() { return s.sig.subscribe(f) }

// BindViewport applies every class change to c and hands the resulting
// requests to dispatch.
func BindViewport(v ViewportClassifier, c *Controller, dispatch func([]Request)) (unsubscribe func()) {
	return v.Subscribe(func(compact bool) {
		if reqs := c.SetCompact(compact); len(reqs) > 0 {
			dispatch(reqs)
		}
	})
}
