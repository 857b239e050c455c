package timsort

import "fmt"

// Range is a half-open window [Start, End) of array indexes touched by sort
// work. The zero value is empty.
type Range struct {
	Start int
	End   int
}

// Empty reports whether the range covers nothing.
func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Len returns the number of indexes covered.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

// Union returns the smallest range covering both r and o.
func (r Range) Union(o Range) Range {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Range{Start: min(r.Start, o.Start), End: max(r.End, o.End)}
}

// String renders the range for logs and traces.
func (r Range) String() string {
	if r.Empty() {
		return "[)"
	}
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// RunState captures the pending-run boundaries of a paused session: the
// lengths of the already-detected sorted runs covering a prefix of the
// array. A paused sort resumed with its RunState picks up exactly where it
// left off instead of re-discovering order from scratch.
type RunState struct {
	lens []int
}

// Empty reports whether the state carries no runs.
func (st RunState) Empty() bool {
	return len(st.lens) == 0
}

// Covered returns how many leading array elements the runs span.
func (st RunState) Covered() int {
	total := 0
	for _, l := range st.lens {
		total += l
	}
	return total
}

// WithoutIndices adjusts the run boundaries for elements removed from the
// array at the given indexes (expressed in the pre-removal array, strictly
// ascending). Removing elements from a sorted run leaves it sorted, so each
// removal simply shortens the run containing it; removals beyond the
// covered prefix need no adjustment. The receiver is not modified.
func (st RunState) WithoutIndices(removed []int) RunState {
	if len(removed) == 0 || len(st.lens) == 0 {
		return st
	}

	out := make([]int, len(st.lens))
	copy(out, st.lens)

	base := 0 // cumulative start of run ri in pre-removal coordinates
	ri := 0
	prev := -1
	for _, idx := range removed {
		if idx <= prev {
			panic(fmt.Sprintf("timsort: removal indexes must be strictly ascending, got %d after %d", idx, prev))
		}
		prev = idx
		for ri < len(st.lens) && idx >= base+st.lens[ri] {
			base += st.lens[ri]
			ri++
		}
		if ri == len(st.lens) {
			break // beyond the covered prefix
		}
		out[ri]--
	}

	lens := out[:0]
	for _, l := range out {
		if l > 0 {
			lens = append(lens, l)
		}
	}
	if len(lens) == 0 {
		return RunState{}
	}
	return RunState{lens: lens}
}
