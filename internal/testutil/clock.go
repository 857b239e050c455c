// Package testutil provides deterministic helpers shared by tests:
// controllable clocks for driving step budgets without real time.
package testutil

import "time"

// StepClock is a manually advanced monotonic clock. The zero of the clock
// is an arbitrary fixed instant; tests advance it explicitly, so code that
// measures budgets against it behaves identically on every run.
type StepClock struct {
	now time.Time
}

// NewStepClock returns a clock positioned at its fixed origin.
func NewStepClock() *StepClock {
	return &StepClock{now: time.Unix(1000, 0)}
}

// Now returns the current instant without advancing.
func (c *StepClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d.
func (c *StepClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// AutoClock advances itself by a fixed amount on every Now call. Driving a
// budgeted loop with an AutoClock pins down exactly how many work units fit
// in one slice, independent of the machine the test runs on.
type AutoClock struct {
	now  time.Time
	step time.Duration
}

// NewAutoClock returns a clock that gains step per Now call.
func NewAutoClock(step time.Duration) *AutoClock {
	return &AutoClock{now: time.Unix(1000, 0), step: step}
}

// Now advances the clock by the configured step and returns the new value.
func (c *AutoClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}
