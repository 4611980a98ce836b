package browse

import (
	"testing"
)

func TestScrollTriggerFiresOnRisingEdge(t *testing.T) {
	h := newHarness(t, 25, true)
	h.mustRun(h.ctrl.Start())

	sentinel := NewSentinel(0.1)
	var dispatched [][]Request
	trigger := NewScrollTrigger(sentinel, h.ctrl, func(reqs []Request) { dispatched = append(dispatched, reqs) })
	defer trigger.Close()

	sentinel.Observe(0.05)
	if len(dispatched) != 0 {
		t.Fatalf("Below threshold must not fire, got %+v", dispatched)
	}

	sentinel.Observe(0.1)
	if len(dispatched) != 1 || dispatched[0][0].Page != 2 {
		t.Fatalf("Expected page 2 fetch on entering view, got %+v", dispatched)
	}

	// Still visible while the fetch is pending.
	sentinel.Observe(0.5)
	sentinel.Observe(1)
	if len(dispatched) != 1 {
		t.Errorf("Continuous visibility must not refire, got %d dispatches", len(dispatched))
	}
}

func TestScrollTriggerRecheckFillsShortList(t *testing.T) {
	h := newHarness(t, 25, true)
	h.mustRun(h.ctrl.Start())

	sentinel := NewSentinel(0)
	var dispatched []Request
	trigger := NewScrollTrigger(sentinel, h.ctrl, func(reqs []Request) { dispatched = append(dispatched, reqs...) })

	sentinel.Observe(1)
	for len(dispatched) > 0 {
		req := dispatched[0]
		dispatched = dispatched[1:]
		h.mustRun([]Request{req})
		trigger.Recheck()
	}

	v := h.ctrl.View()
	if v.HasMore || len(v.Items) != 25 {
		t.Errorf("Expected visible sentinel to load everything, got %d items hasMore=%v", len(v.Items), v.HasMore)
	}

	before := h.transport.RequestsMade()
	trigger.Recheck()
	sentinel.Observe(0)
	sentinel.Observe(1)
	if h.transport.RequestsMade() != before || len(dispatched) != 0 {
		t.Error("Exhausted list must not trigger further fetches")
	}
}

func TestScrollTriggerInactiveInDiscreteMode(t *testing.T) {
	h := newHarness(t, 25, false)
	h.mustRun(h.ctrl.Start())

	sentinel := NewSentinel(0.1)
	fired := 0
	NewScrollTrigger(sentinel, h.ctrl, func([]Request) { fired++ })

	sentinel.Observe(1)
	if fired != 0 {
		t.Errorf("Trigger fired in discrete mode")
	}
}

func TestScrollTriggerClose(t *testing.T) {
	h := newHarness(t, 25, true)
	h.mustRun(h.ctrl.Start())

	sentinel := NewSentinel(0.1)
	fired := 0
	trigger := NewScrollTrigger(sentinel, h.ctrl, func([]Request) { fired++ })
	trigger.Close()

	sentinel.Observe(1)
	if fired != 0 {
		t.Errorf("Closed trigger fired %d times", fired)
	}
}
