// Package sortview maintains a live sorted projection of a mutable source
// sequence.
//
// A View watches a list.Model, keeps one tracking entry per source item,
// and republishes the same observable surface with the items rearranged
// into the order a sorter.Interface dictates. Sorting and reconciliation
// are incremental: large sorts proceed in bounded time slices on a
// cooperative scheduler, and source splices patch the tracking state in a
// single pass instead of rebuilding it. Observers receive one splice
// notification per mutation or completed slice, covering the narrowest
// range the engine can prove.
//
// Views are single-goroutine objects. All mutation, stepping, and
// notification happens on the goroutine driving the scheduler; there is no
// locking and no parallelism inside the engine.
package sortview

import (
	"log/slog"
	"time"

	"github.com/roach88/sortview/internal/event"
	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/mainloop"
	"github.com/roach88/sortview/internal/sorter"
	"github.com/roach88/sortview/internal/timsort"
)

// entry tracks one live source item. pos records the item's index in the
// source as of the last reconciliation; it is used only to map future
// splice deltas onto existing entries.
type entry[T any] struct {
	item T
	pos  int
}

// Default per-slice wall-clock budget for incremental sort steps.
const defaultStepBudget = time.Millisecond

// Merges are capped during incremental runs so a single slice never moves
// more than this many elements at once.
const defaultMaxMergeSize = 1024

// Scheduler registers cooperative idle callbacks. A scheduled callback runs
// once per loop round until it returns false or its cancel function is
// called.
type Scheduler interface {
	Schedule(fn func() bool) (cancel func())
}

// View is a sorted projection over a source sequence. It implements
// list.Model itself, so anything that consumes an observable sequence can
// consume a View, including another View.
//
// The entries slice is the sort tracking array. Empty means no sorting is
// active and reads pass through to the source untouched; this is a valid
// steady state, not a transient.
type View[T any] struct {
	source      list.Model[T]
	sorter      sorter.Interface[T]
	incremental bool

	entries    []entry[T]
	session    *timsort.Session[entry[T]]
	cancelTick func() // non-nil iff a cooperative step is pending

	sourceCancel func()
	sorterCancel func()

	scheduler  Scheduler
	stepBudget time.Duration
	maxMerge   int
	now        func() time.Time
	log        *slog.Logger

	hub event.Hub[list.Splice]
}

// Option configures a View.
type Option[T any] func(*View[T])

// WithIncremental controls whether sorting runs in scheduled time slices
// instead of synchronously. Off by default.
func WithIncremental[T any](incremental bool) Option[T] {
	return func(v *View[T]) { v.incremental = incremental }
}

// WithScheduler sets the cooperative scheduler incremental steps run on.
// Defaults to the process-wide mainloop.
func WithScheduler[T any](s Scheduler) Option[T] {
	if s == nil {
		panic("sortview: nil scheduler")
	}
	return func(v *View[T]) { v.scheduler = s }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger[T any](log *slog.Logger) Option[T] {
	if log == nil {
		panic("sortview: nil logger")
	}
	return func(v *View[T]) { v.log = log }
}

// WithStepBudget sets the wall-clock budget of one incremental slice.
func WithStepBudget[T any](budget time.Duration) Option[T] {
	if budget <= 0 {
		panic("sortview: non-positive step budget")
	}
	return func(v *View[T]) { v.stepBudget = budget }
}

// WithNow injects the clock used to measure step budgets.
func WithNow[T any](now func() time.Time) Option[T] {
	if now == nil {
		panic("sortview: nil clock")
	}
	return func(v *View[T]) { v.now = now }
}

// WithMaxMergeSize bounds how many elements one incremental merge may move.
// Zero means unbounded.
func WithMaxMergeSize[T any](n int) Option[T] {
	if n < 0 {
		panic("sortview: negative max merge size")
	}
	return func(v *View[T]) { v.maxMerge = n }
}

// New creates a projection of source ordered by srt. Both may be nil: with
// no source the view is empty, with no sorter it is a passthrough.
func New[T any](source list.Model[T], srt sorter.Interface[T], opts ...Option[T]) *View[T] {
	v := &View[T]{
		stepBudget: defaultStepBudget,
		maxMerge:   defaultMaxMergeSize,
		now:        time.Now,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.scheduler == nil {
		v.scheduler = mainloop.Default()
	}
	v.SetSource(source)
	v.SetSorter(srt)
	return v
}

// Len returns the number of projected items, which always equals the
// source's count.
func (v *View[T]) Len() int {
	if v.source == nil {
		return 0
	}
	return v.source.Len()
}

// At returns the item at the projected position i. While unsorted it reads
// the source directly; an index beyond the tracked entries reports absent
// rather than panicking, tolerating observers that race a pending
// notification.
func (v *View[T]) At(i int) (T, bool) {
	var zero T
	if v.source == nil || i < 0 {
		return zero, false
	}
	if len(v.entries) == 0 {
		return v.source.At(i)
	}
	if i >= len(v.entries) {
		return zero, false
	}
	return v.entries[i].item, true
}

// Watch subscribes fn to the view's splice notifications. Handlers run
// synchronously after the view's state has been updated and see the new
// projection. The returned function cancels the subscription.
func (v *View[T]) Watch(fn func(list.Splice)) (cancel func()) {
	return v.hub.Subscribe(fn)
}

// Source returns the current source sequence, or nil.
func (v *View[T]) Source() list.Model[T] {
	return v.source
}

// Sorter returns the current sorter, or nil.
func (v *View[T]) Sorter() sorter.Interface[T] {
	return v.sorter
}

// Incremental reports whether sorting runs in scheduled slices.
func (v *View[T]) Incremental() bool {
	return v.incremental
}

// Pending returns an estimate of outstanding sort work, measured in items
// the active session has not pulled into its run stack yet. Zero when no
// sort is running.
func (v *View[T]) Pending() int {
	if v.session == nil {
		return 0
	}
	return len(v.entries) - v.session.Scanned()
}

// SetSource replaces the source sequence. The tracking state is rebuilt
// from scratch, membership changed entirely, and one notification covering
// the whole old and new span is emitted. Setting the same source again is
// a no-op.
func (v *View[T]) SetSource(source list.Model[T]) {
	if v.source == source {
		return
	}

	removed := v.Len()
	v.clearSource()

	added := 0
	if source != nil {
		v.source = source
		v.sourceCancel = source.Watch(v.reconcile)
		added = source.Len()

		v.createEntries()
		if !v.startSort(timsort.RunState{}) {
			v.finishSort()
		}
	}

	v.log.Debug("source replaced",
		"removed", removed,
		"added", added,
	)

	if removed > 0 || added > 0 {
		v.emit(0, removed, added)
	}
}

// SetSorter replaces the sorter. A non-nil sorter triggers the same
// reconciliation as a sorter-wide change signal. Removing the sorter drops
// the tracking state and reverts the projection to source order, notifying
// the full range when more than one item may have moved.
func (v *View[T]) SetSorter(srt sorter.Interface[T]) {
	v.clearSorter()

	if srt != nil {
		v.sorter = srt
		v.sorterCancel = srt.Watch(v.sorterChanged)
		v.sorterChanged(sorter.ChangeDifferent)
		return
	}

	n := len(v.entries)
	v.stopSort()
	v.entries = nil
	if n > 1 {
		v.emit(0, n, n)
	}
}

// SetIncremental switches between synchronous and sliced sorting. Turning
// incremental sorting off while a session is running forces it to finish
// before returning, emitting the resulting notification.
func (v *View[T]) SetIncremental(incremental bool) {
	if v.incremental == incremental {
		return
	}
	v.incremental = incremental

	if !incremental && v.isSorting() {
		pos, n := v.finishSort()
		if n > 0 {
			v.emit(pos, n, n)
		}
	}
}

// Close detaches the view from its source and sorter, cancels any pending
// step, and drops all tracking state. Closing twice is harmless.
func (v *View[T]) Close() {
	if v.source == nil && v.sorter == nil {
		return
	}
	v.clearSource()
	v.clearSorter()
	v.log.Debug("view closed")
}

func (v *View[T]) shouldSort() bool {
	return v.sorter != nil &&
		v.source != nil &&
		v.sorter.Order() != sorter.OrderNone
}

func (v *View[T]) clearSource() {
	if v.source == nil {
		return
	}
	v.sourceCancel()
	v.sourceCancel = nil
	v.source = nil
	v.clearEntries()
}

func (v *View[T]) clearSorter() {
	if v.sorter == nil {
		return
	}
	v.sorterCancel()
	v.sorterCancel = nil
	v.sorter = nil
}

func (v *View[T]) emit(position, removed, added int) {
	v.hub.Emit(list.Splice{Position: position, Removed: removed, Added: added})
}
