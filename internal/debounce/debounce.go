// Package debounce delays a changing value until it has been stable for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock is time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer commits the most recently observed value once no newer value
// has arrived for the delay. Trailing edge only.
type Debouncer[T any] struct {
	// emitMu is held across the stopped check and the emit call so Stop
	// can wait out an emission already in progress.
	emitMu    sync.Mutex
	mu        sync.Mutex
	clock     Clock
	delay     time.Duration
	emit      func(T)
	timer     Timer
	token     uint64
	pending   T
	committed T
	stopped   bool
}

// New returns a debouncer that calls emit with each committed value.
// emit runs on the clock's goroutine and must not block.
func New[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return NewWithClock(realClock{}, delay, emit)
}

// NewWithClock is New with an injected clock.
func NewWithClock[T any](clock Clock, delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{clock: clock, delay: delay, emit: emit}
}

// Observe records v and restarts the delay. A pending earlier value is
// dropped without being emitted.
func (d *Debouncer[T]) Observe(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.token++
	token := d.token
	d.pending = v
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(token) })
}

// fire commits the pending value if token is still the latest one. A timer
// that fired concurrently with a newer Observe loses here.
func (d *Debouncer[T]) fire(token uint64) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if d.stopped || token != d.token || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.committed = d.pending
	v := d.committed
	emit := d.emit
	d.mu.Unlock()

	if emit != nil {
		emit(v)
	}
}

// Value returns the last committed value.
func (d *Debouncer[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.committed
}

// Pending reports whether a value is waiting for its delay to pass.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Reset sets the committed value directly and drops anything pending,
// without emitting.
func (d *Debouncer[T]) Reset(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.token++
	d.pending = v
	d.committed = v
}

// Stop cancels any pending timer and waits for an emission already under
// way. Nothing is emitted after Stop returns. Stop must not be called from
// emit, and emit must be able to return while Stop waits.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	d.emitMu.Lock()
	d.emitMu.Unlock()
}
