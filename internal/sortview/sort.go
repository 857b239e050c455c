package sortview

import (
	"github.com/roach88/sortview/internal/timsort"
)

func (v *View[T]) isSorting() bool {
	return v.cancelTick != nil
}

// startSort opens a sort session over the tracking array, resuming from
// state when one is given. In incremental mode a cooperative step is
// scheduled and startSort reports true; otherwise the caller is expected
// to drive the session to completion itself. Starting while a session is
// active is a caller contract violation.
func (v *View[T]) startSort(state timsort.RunState) bool {
	if v.session != nil || v.cancelTick != nil {
		panic("sortview: sort session already active")
	}

	srt := v.sorter
	cmp := func(a, b entry[T]) int {
		return srt.Compare(a.item, b.item)
	}

	opts := []timsort.Option{timsort.WithNow(v.now)}
	if v.incremental {
		opts = append(opts, timsort.WithMaxMergeSize(v.maxMerge))
	}

	if state.Empty() {
		v.session = timsort.Begin(v.entries, cmp, opts...)
	} else {
		v.session = timsort.Resume(v.entries, cmp, state, opts...)
	}

	v.log.Debug("sort started",
		"items", len(v.entries),
		"incremental", v.incremental,
		"resumed", !state.Empty(),
	)

	if !v.incremental {
		return false
	}
	v.cancelTick = v.scheduler.Schedule(v.tick)
	return true
}

// stopSort pauses without finishing: the pending step is cancelled and the
// session abandoned, leaving progress already made on the array in place.
// Returns the resumable run state of an interrupted session; the zero
// state when none was active.
func (v *View[T]) stopSort() timsort.RunState {
	if v.session == nil {
		return timsort.RunState{}
	}

	if v.cancelTick != nil {
		v.cancelTick()
		v.cancelTick = nil
	}
	state := v.session.Runs()
	v.session = nil
	return state
}

// finishSort drains the active session to completion synchronously,
// regardless of how much work remains, and returns the touched window. A
// caller that force-finishes a huge pending sort blocks for the full
// remaining cost; that is the documented trade-off of leaving incremental
// mode.
func (v *View[T]) finishSort() (pos, n int) {
	if v.session == nil {
		panic("sortview: no sort session to finish")
	}

	touched := v.session.Finish()

	if v.cancelTick != nil {
		v.cancelTick()
		v.cancelTick = nil
	}
	v.session = nil

	v.log.Debug("sort finished",
		"items", len(v.entries),
		"touched", touched.Len(),
	)

	if touched.Empty() {
		return 0, 0
	}
	return touched.Start, touched.Len()
}

// tick is the scheduled cooperative step: one budgeted slice of sort work,
// one notification for whatever it moved. Returning true keeps the
// callback scheduled for the next round.
func (v *View[T]) tick() bool {
	if v.session == nil {
		return false
	}

	more, touched := v.session.Step(v.stepBudget)
	if !more {
		v.cancelTick = nil
		v.session = nil
		v.log.Debug("sort finished",
			"items", len(v.entries),
			"touched", touched.Len(),
		)
	}

	if n := touched.Len(); n > 0 {
		v.emit(touched.Start, n, n)
	}
	return more
}
