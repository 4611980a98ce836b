package browse

// ScrollTrigger calls FetchNext when the sentinel becomes visible while
// the controller is in cumulative mode.
type ScrollTrigger struct {
	ctrl        *Controller
	sensor      VisibilitySensor
	dispatch    func([]Request)
	unsubscribe func()
	visible     bool
}

// NewScrollTrigger subscribes to sensor. dispatch receives the requests
// FetchNext issues.
func NewScrollTrigger(sensor VisibilitySensor, ctrl *Controller, dispatch func([]Request)) *ScrollTrigger {
	t := &ScrollTrigger{ctrl: ctrl, sensor: sensor, dispatch: dispatch, visible: sensor.Visible()}
	t.unsubscribe = sensor.Subscribe(t.onVisibility)
	return t
}

func (t *ScrollTrigger) onVisibility(visible bool) {
	rising := visible && !t.visible
	t.visible = visible
	if rising {
		t.fire()
	}
}

// Recheck fires again if the sentinel stayed visible across a completed
// append, so a short list keeps filling the viewport. The host calls it
// after a successful cumulative page, never after a failure.
func (t *ScrollTrigger) Recheck() {
	if t.visible {
		t.fire()
	}
}

func (t *ScrollTrigger) fire() {
	if t.ctrl.ActiveMode() != Cumulative || !t.ctrl.CanFetchNext() {
		return
	}
	if reqs := t.ctrl.FetchNext(); len(reqs) > 0 && t.dispatch != nil {
		t.dispatch(reqs)
	}
}

// Close stops observing the sensor.
func (t *ScrollTrigger) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}
