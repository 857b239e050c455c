// Package mainloop provides the cooperative scheduler that drives
// incremental work. Callbacks registered on a Loop run in rounds on the
// goroutine pumping it and are rescheduled for as long as they return true,
// idle-callback style.
//
// Registration and cancellation are safe from any goroutine. Dispatch is
// not: exactly one goroutine should drive a loop via Pump, Drain, or Run,
// and callbacks run on that goroutine.
package mainloop

import (
	"context"
	"sync"
)

// Task is the handle for one registered callback.
type Task struct {
	loop *Loop
	fn   func() bool
	done bool // guarded by loop.mu
}

// Cancel removes the task from its loop. Cancelling twice, or cancelling a
// task that already finished, is harmless.
func (t *Task) Cancel() {
	l := t.loop
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.done {
		return
	}
	t.done = true

	for i, other := range l.tasks {
		if other == t {
			copy(l.tasks[i:], l.tasks[i+1:])
			// Nil out the vacated slot so the callback's captures can be
			// collected while the backing array lives on.
			l.tasks[len(l.tasks)-1] = nil
			l.tasks = l.tasks[:len(l.tasks)-1]
			break
		}
	}
}

// Loop is a cooperative task loop.
type Loop struct {
	mu     sync.Mutex
	tasks  []*Task
	closed bool
	signal chan struct{} // signals task availability (buffered, size 1)
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		signal: make(chan struct{}, 1),
	}
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns the process-wide loop, creating it on first use.
func Default() *Loop {
	defaultOnce.Do(func() {
		defaultLoop = New()
	})
	return defaultLoop
}

// Add registers fn to run on every round until it returns false or is
// cancelled. Safe from any goroutine, including from inside a running
// callback; tasks added mid-round run starting with the next round.
// On a closed loop the returned task is already cancelled.
func (l *Loop) Add(fn func() bool) *Task {
	if fn == nil {
		panic("mainloop: nil task callback")
	}
	t := &Task{loop: l, fn: fn}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		t.done = true
		return t
	}
	l.tasks = append(l.tasks, t)

	// Non-blocking send; the size-1 buffer coalesces bursts of wakeups.
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return t
}

// Post schedules fn to run exactly once on the next round.
func (l *Loop) Post(fn func()) *Task {
	return l.Add(func() bool {
		fn()
		return false
	})
}

// Schedule registers an idle callback and returns its cancel function.
// This is the registration shape consumers of incremental engines plug in.
func (l *Loop) Schedule(fn func() bool) (cancel func()) {
	return l.Add(fn).Cancel
}

// Pump runs one round: every task registered at entry gets one callback,
// in registration order. Tasks that return false are removed. Reports
// whether any tasks remain afterwards.
func (l *Loop) Pump() bool {
	l.mu.Lock()
	batch := make([]*Task, len(l.tasks))
	copy(batch, l.tasks)
	l.mu.Unlock()

	for _, t := range batch {
		l.mu.Lock()
		dead := t.done
		l.mu.Unlock()
		if dead {
			continue
		}
		if !t.fn() {
			t.Cancel()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) > 0
}

// Drain pumps until no tasks remain. Tasks are expected to finish in a
// bounded number of rounds; one that always returns true keeps Drain
// spinning.
func (l *Loop) Drain() {
	for l.Pump() {
	}
}

// Run pumps until the context is cancelled or the loop is closed, sleeping
// between rounds while no tasks are registered. Returns the context error
// on cancellation and nil on close.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.Pump() {
			continue
		}

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.signal:
		}
	}
}

// Len returns the number of registered tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Close cancels every task and wakes a blocked Run. Closing twice is
// harmless.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	for _, t := range l.tasks {
		t.done = true
	}
	l.tasks = nil
	close(l.signal)
}
