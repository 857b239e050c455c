package sortview

import (
	"fmt"

	"github.com/roach88/sortview/internal/list"
	"github.com/roach88/sortview/internal/sorter"
	"github.com/roach88/sortview/internal/timsort"
)

// reconcile integrates one source splice into the tracking state. This is
// the central invariant-preserving operation: it patches entries in a
// single pass, never rebuilds them, and never drops or duplicates an item.
func (v *View[T]) reconcile(sp list.Splice) {
	if sp.Removed == 0 && sp.Added == 0 {
		return
	}

	if !v.shouldSort() {
		// Unsorted passthrough: forward the splice verbatim.
		v.emit(sp.Position, sp.Removed, sp.Added)
		return
	}

	wasSorting := v.isSorting()
	state := v.stopSort()

	start, end, dropped := v.patchEntries(sp)

	resumed := false
	if sp.Added > 0 {
		v.appendEntries(sp.Position, sp.Added)

		// Appended entries sit unsorted at the tail, so the changed window
		// extends to the end of the array and any saved run state is void.
		end = 0
		if !v.startSort(timsort.RunState{}) {
			pos, n := v.finishSort()
			if n > 0 {
				start = min(start, pos)
			}
		}
	} else if wasSorting {
		// Removing entries from sorted runs keeps each run sorted, so the
		// interrupted session continues with shortened run boundaries.
		v.startSort(state.WithoutIndices(dropped))
		resumed = true
	}

	v.log.Debug("source splice reconciled",
		"position", sp.Position,
		"removed", sp.Removed,
		"added", sp.Added,
		"resumed", resumed,
	)

	n := len(v.entries) - start - end
	v.emit(start, n-sp.Added+sp.Removed, n)
}

// patchEntries walks the tracking array once, left to right, with a write
// cursor: entries past the edited source region shift their recorded
// position, entries inside it are dropped, everything else is kept as is.
// It returns the projected index of the first dropped entry (the array
// length when none were), the count of untouched trailing entries, and the
// pre-patch projected indexes of all dropped entries in ascending order.
func (v *View[T]) patchEntries(sp list.Splice) (start, end int, dropped []int) {
	n := len(v.entries)
	start = n
	end = n

	valid := 0
	for i := 0; i < n; i++ {
		e := v.entries[i]

		if e.pos >= sp.Position+sp.Removed {
			e.pos += sp.Added - sp.Removed
		} else if e.pos >= sp.Position {
			start = min(start, valid)
			end = n - i - 1
			dropped = append(dropped, i)
			continue
		}
		v.entries[valid] = e
		valid++
	}

	if valid != n-sp.Removed {
		panic(fmt.Sprintf("sortview: splice (%d,%d,%d) matched %d tracked entries, want %d",
			sp.Position, sp.Removed, sp.Added, n-valid, sp.Removed))
	}

	// Zero the vacated tail so dropped items can be collected while the
	// backing array is retained.
	for i := valid; i < n; i++ {
		v.entries[i] = entry[T]{}
	}
	v.entries = v.entries[:valid]

	return start, end, dropped
}

// createEntries populates the tracking array from the source, one entry
// per item in source order. No-op unless sorting is in effect.
func (v *View[T]) createEntries() {
	if !v.shouldSort() {
		return
	}

	n := v.source.Len()
	v.entries = make([]entry[T], 0, n)
	for i := 0; i < n; i++ {
		item, ok := v.source.At(i)
		if !ok {
			panic(fmt.Sprintf("sortview: source reports %d items but item %d is absent", n, i))
		}
		v.entries = append(v.entries, entry[T]{item: item, pos: i})
	}
}

// appendEntries appends one tracking entry per newly inserted source index.
// New entries are deliberately unsorted; the next sort pass places them.
func (v *View[T]) appendEntries(position, added int) {
	for i := position; i < position+added; i++ {
		item, ok := v.source.At(i)
		if !ok {
			panic(fmt.Sprintf("sortview: source reported %d added items at %d but item %d is absent",
				added, position, i))
		}
		v.entries = append(v.entries, entry[T]{item: item, pos: i})
	}
}

// clearEntries stops any active sort and drops the whole tracking array,
// reporting the window of projected positions whose items may differ from
// source order. Leading and trailing entries already sitting at their
// source position are excluded from the window.
func (v *View[T]) clearEntries() (pos, n int) {
	v.stopSort()

	total := len(v.entries)
	start := 0
	for start < total && v.entries[start].pos == start {
		start++
	}
	end := total
	for end > start && v.entries[end-1].pos == end-1 {
		end--
	}

	v.entries = nil

	if end == start {
		return 0, 0
	}
	return start, end - start
}

// sorterChanged reacts to the sorter reporting changed behavior. Any prior
// ordering assumption is void, so an active session is discarded, never
// resumed. The change hint is not consulted; every non-none change is
// treated as a full reorder.
func (v *View[T]) sorterChanged(sorter.Change) {
	var pos, n int

	if v.sorter.Order() == sorter.OrderNone {
		pos, n = v.clearEntries()
	} else {
		if len(v.entries) == 0 {
			v.createEntries()
		}
		v.stopSort()
		if !v.startSort(timsort.RunState{}) {
			pos, n = v.finishSort()
		}
	}

	if n > 0 {
		v.emit(pos, n, n)
	}
}
