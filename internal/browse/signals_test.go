package browse

import (
	"testing"
)

func TestBreakpointClassifies(t *testing.T) {
	b := NewBreakpoint(768, 8)

	tests := []struct {
		cols int
		want bool
	}{
		{80, true},
		{95, true},
		{96, false},
		{200, false},
	}
	for _, tt := range tests {
		if got := b.IsCompact(tt.cols); got != tt.want {
			t.Errorf("IsCompact(%d) = %v, want %v", tt.cols, got, tt.want)
		}
	}
}

func TestBreakpointNotifiesOnClassChange(t *testing.T) {
	b := NewBreakpoint(0, 0)
	var got []bool
	unsubscribe := b.Subscribe(func(compact bool) { got = append(got, compact) })

	b.Resize(120)
	b.Resize(80)
	b.Resize(70)
	b.Resize(100)
	unsubscribe()
	b.Resize(60)

	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("Expected [true false], got %v", got)
	}
	if !b.Compact() {
		t.Error("Expected compact after final resize")
	}
}

func TestBindViewportDispatchesModeSwitch(t *testing.T) {
	h := newHarness(t, 25, false)
	h.mustRun(h.ctrl.Start())

	b := NewBreakpoint(768, 8)
	b.Resize(120)
	var dispatched []Request
	unsubscribe := BindViewport(b, h.ctrl, func(reqs []Request) { dispatched = append(dispatched, reqs...) })
	defer unsubscribe()

	b.Resize(60)
	if h.ctrl.ActiveMode() != Cumulative || len(dispatched) != 1 || dispatched[0].Mode != Cumulative {
		t.Errorf("Expected switch to cumulative with one fetch, got mode %v and %+v", h.ctrl.ActiveMode(), dispatched)
	}
}
