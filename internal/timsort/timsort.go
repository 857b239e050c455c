// Package timsort implements a resumable, stepping stable merge sort.
//
// Sorting is organized as a session over a caller-owned slice. Work happens
// in whole units: detecting (and binary-insertion extending) the next
// natural run, or merging two adjacent pending runs. A session can be
// driven with a wall-clock budget, paused between units, snapshotted via
// Runs, and resumed later; the array is a structurally valid permutation
// of its elements at every yield point. Merges trim the parts of both runs
// that are already in place, so reported touched ranges stay minimal.
//
// Galloping is deliberately absent: merges are plain two-pointer walks.
// What matters here is bounded, resumable progress, not comparison-count
// records.
package timsort

import (
	"fmt"
	"time"
)

// Natural runs shorter than this are extended with binary insertion, per
// the classic minimum-run heuristic.
const minMerge = 32

type run struct {
	base int
	len  int
}

// Session is one in-progress sort over a slice. Sessions are single-loop
// objects, not goroutine-safe.
type Session[E any] struct {
	data     []E
	cmp      func(a, b E) int
	runs     []run
	scanned  int // data[:scanned] is covered by the pending runs
	tmp      []E
	minRun   int
	maxMerge int
	now      func() time.Time
}

// Option configures a session.
type Option func(*settings)

type settings struct {
	maxMerge int
	now      func() time.Time
}

// WithMaxMergeSize bounds the number of elements a single merge unit may
// move. Oversized merges proceed through partial merges that leave a valid
// run stack between units, keeping per-unit latency flat. Zero means
// unbounded; negative values panic.
func WithMaxMergeSize(n int) Option {
	if n < 0 {
		panic("timsort: negative max merge size")
	}
	return func(s *settings) { s.maxMerge = n }
}

// WithNow injects the clock used for Step budgets.
func WithNow(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// Begin opens a sort session over data using cmp. The slice is sorted in
// place as the session is driven.
func Begin[E any](data []E, cmp func(a, b E) int, opts ...Option) *Session[E] {
	if cmp == nil {
		panic("timsort: nil compare function")
	}
	cfg := settings{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Session[E]{
		data:     data,
		cmp:      cmp,
		minRun:   minRunLength(len(data)),
		maxMerge: cfg.maxMerge,
		now:      cfg.now,
	}
}

// Resume opens a session that continues from a previously captured
// RunState. The state's runs must fit the slice; handing a session an
// incompatible array is a caller contract violation and panics.
func Resume[E any](data []E, cmp func(a, b E) int, state RunState, opts ...Option) *Session[E] {
	s := Begin(data, cmp, opts...)
	total := 0
	for _, l := range state.lens {
		if l <= 0 {
			panic(fmt.Sprintf("timsort: corrupt run state, run length %d", l))
		}
		s.runs = append(s.runs, run{base: total, len: l})
		total += l
	}
	if total > len(data) {
		panic(fmt.Sprintf("timsort: run state covers %d elements, array has %d", total, len(data)))
	}
	s.scanned = total
	return s
}

// Runs captures the resumable pending-run state. The session remains
// usable; the snapshot is independent of further progress.
func (s *Session[E]) Runs() RunState {
	if len(s.runs) == 0 {
		return RunState{}
	}
	lens := make([]int, len(s.runs))
	for i, r := range s.runs {
		lens[i] = r.len
	}
	return RunState{lens: lens}
}

// Scanned returns how many leading elements the pending runs cover. The
// remainder has not been looked at yet, which makes len(data)-Scanned() a
// usable estimate of outstanding work.
func (s *Session[E]) Scanned() int {
	return s.scanned
}

// Step drives the sort until the budget elapses or nothing remains. At
// least one whole unit runs per call (a call can therefore overshoot a tiny
// budget by one unit). more reports whether further steps are needed;
// touched is the union of everything this slice moved.
func (s *Session[E]) Step(budget time.Duration) (more bool, touched Range) {
	deadline := s.now().Add(budget)
	for {
		r, ok := s.stepOne()
		if !ok {
			return false, touched
		}
		touched = touched.Union(r)
		if s.done() {
			return false, touched
		}
		if !s.now().Before(deadline) {
			return true, touched
		}
	}
}

// Finish drains the session to completion with unbounded merges and
// returns everything it touched.
func (s *Session[E]) Finish() Range {
	s.maxMerge = 0
	var touched Range
	for {
		r, ok := s.stepOne()
		if !ok {
			return touched
		}
		touched = touched.Union(r)
	}
}

func (s *Session[E]) done() bool {
	return s.scanned == len(s.data) && len(s.runs) <= 1
}

// stepOne performs one whole work unit: a collapse merge mandated by the
// run-length invariants, the next run detection, or a final merge once the
// scan is complete. It reports what moved and whether any work was done.
func (s *Session[E]) stepOne() (Range, bool) {
	if i, ok := s.mergeNeeded(); ok {
		return s.mergeAt(i), true
	}
	if s.scanned < len(s.data) {
		return s.nextRun(), true
	}
	if len(s.runs) > 1 {
		n := len(s.runs) - 2
		if n > 0 && s.runs[n-1].len < s.runs[n+1].len {
			n--
		}
		return s.mergeAt(n), true
	}
	return Range{}, false
}

// mergeNeeded checks the classic stack invariants
//
//	runs[n-1] > runs[n] + runs[n+1]
//	runs[n]   > runs[n+1]
//
// and picks the pair to merge when one is violated.
func (s *Session[E]) mergeNeeded() (int, bool) {
	n := len(s.runs) - 2
	if n < 0 {
		return 0, false
	}
	if (n > 0 && s.runs[n-1].len <= s.runs[n].len+s.runs[n+1].len) ||
		(n > 1 && s.runs[n-2].len <= s.runs[n-1].len+s.runs[n].len) {
		if s.runs[n-1].len < s.runs[n+1].len {
			n--
		}
		return n, true
	}
	if s.runs[n].len <= s.runs[n+1].len {
		return n, true
	}
	return 0, false
}

// nextRun detects the next natural run at the scan frontier, reverses it if
// descending, extends it to the minimum length with binary insertion, and
// pushes it on the stack.
func (s *Session[E]) nextRun() Range {
	base := s.scanned
	n := len(s.data)

	runLen, moved := s.countRun(base)
	var touched Range
	if moved {
		touched = Range{Start: base, End: base + runLen}
	}

	if runLen < s.minRun {
		force := min(s.minRun, n-base)
		touched = touched.Union(s.binaryInsert(base, base+force, base+runLen))
		runLen = force
	}

	s.runs = append(s.runs, run{base: base, len: runLen})
	s.scanned = base + runLen
	return touched
}

// countRun measures the natural run starting at lo: a maximal ascending
// stretch, or a maximal strictly descending stretch which is reversed in
// place (strictness keeps the sort stable). moved reports whether a
// reversal happened.
func (s *Session[E]) countRun(lo int) (int, bool) {
	hi := lo + 1
	n := len(s.data)
	if hi == n {
		return 1, false
	}

	if s.cmp(s.data[hi], s.data[lo]) < 0 {
		hi++
		for hi < n && s.cmp(s.data[hi], s.data[hi-1]) < 0 {
			hi++
		}
		s.reverse(lo, hi)
		return hi - lo, true
	}

	hi++
	for hi < n && s.cmp(s.data[hi], s.data[hi-1]) >= 0 {
		hi++
	}
	return hi - lo, false
}

// binaryInsert insertion-sorts data[lo:hi] assuming data[lo:start] is
// already sorted, placing each new element with a binary search. Equal
// elements insert after their peers, preserving stability. Returns the
// window of indexes whose elements actually moved.
func (s *Session[E]) binaryInsert(lo, hi, start int) Range {
	var moved Range
	if start == lo {
		start++
	}
	for ; start < hi; start++ {
		pivot := s.data[start]
		left, right := lo, start
		for left < right {
			mid := int(uint(left+right) >> 1)
			if s.cmp(pivot, s.data[mid]) < 0 {
				right = mid
			} else {
				left = mid + 1
			}
		}
		if left < start {
			copy(s.data[left+1:start+1], s.data[left:start])
			s.data[left] = pivot
			moved = moved.Union(Range{Start: left, End: start + 1})
		}
	}
	return moved
}

// reverse flips data[lo:hi) in place.
func (s *Session[E]) reverse(lo, hi int) {
	for hi--; lo < hi; lo, hi = lo+1, hi-1 {
		s.data[lo], s.data[hi] = s.data[hi], s.data[lo]
	}
}

// minRunLength computes the minimum run length for an array of length n:
// n itself when short, otherwise a value in [minMerge/2, minMerge] such
// that n/minRun is close to a power of two.
func minRunLength(n int) int {
	r := 0
	for n >= minMerge {
		r |= n & 1
		n >>= 1
	}
	return n + r
}
