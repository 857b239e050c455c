package timsort

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sortview/internal/testutil"
)

type pair struct {
	key int
	seq int
}

func pairCmp(a, b pair) int { return a.key - b.key }
func intCmp(a, b int) int   { return a - b }

func randomInts(t *testing.T, n, span int, seed int64) []int {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	out := make([]int, n)
	for i := range out {
		out[i] = rng.Intn(span)
	}
	return out
}

func counts(data []int) map[int]int {
	m := make(map[int]int)
	for _, v := range data {
		m[v]++
	}
	return m
}

func requireSorted(t *testing.T, data []int) {
	t.Helper()
	for i := 1; i < len(data); i++ {
		require.LessOrEqual(t, data[i-1], data[i], "unsorted at index %d", i)
	}
}

// checkRuns verifies the pending-run stack: contiguous from zero, positive
// lengths, each run internally sorted, total matching the scan frontier.
func checkRuns[E any](t *testing.T, s *Session[E]) {
	t.Helper()
	base := 0
	for _, r := range s.runs {
		require.Equal(t, base, r.base, "runs must be contiguous")
		require.Positive(t, r.len)
		for i := r.base + 1; i < r.base+r.len; i++ {
			require.LessOrEqual(t, s.cmp(s.data[i-1], s.data[i]), 0, "run unsorted at index %d", i)
		}
		base += r.len
	}
	require.Equal(t, s.scanned, base)
}

func TestFinish_SortsAcrossSizes(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 31, 32, 33, 100, 1000} {
		data := randomInts(t, n, 50, int64(n)+7)
		want := counts(data)

		s := Begin(data, intCmp)
		s.Finish()

		requireSorted(t, data)
		assert.Equal(t, want, counts(data), "multiset changed for n=%d", n)
	}
}

func TestFinish_IsStable(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	data := make([]pair, 500)
	for i := range data {
		data[i] = pair{key: rng.Intn(20), seq: i}
	}

	s := Begin(data, pairCmp)
	s.Finish()

	for i := 1; i < len(data); i++ {
		require.LessOrEqual(t, data[i-1].key, data[i].key)
		if data[i-1].key == data[i].key {
			require.Less(t, data[i-1].seq, data[i].seq, "stability broken at %d", i)
		}
	}
}

func TestFinish_SortedInputTouchesNothing(t *testing.T) {
	for _, n := range []int{5, 100} {
		data := make([]int, n)
		for i := range data {
			data[i] = i
		}

		s := Begin(data, intCmp)
		touched := s.Finish()

		assert.True(t, touched.Empty(), "n=%d touched %v", n, touched)
	}
}

func TestFinish_AppendedElementTouchesSuffixOnly(t *testing.T) {
	// 0..9 with a 5 appended: only the slots from the insertion point to
	// the end shift.
	data := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 5}

	s := Begin(data, intCmp)
	touched := s.Finish()

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 5, 6, 7, 8, 9}, data)
	assert.Equal(t, Range{Start: 6, End: 11}, touched)
}

func TestFinish_AppendedMaximumTouchesNothing(t *testing.T) {
	data := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 99}

	s := Begin(data, intCmp)
	touched := s.Finish()

	requireSorted(t, data)
	assert.True(t, touched.Empty(), "touched %v", touched)
}

func TestStep_BudgetBoundsUnits(t *testing.T) {
	clock := testutil.NewAutoClock(time.Millisecond)
	data := randomInts(t, 400, 1000, 3)
	want := counts(data)

	s := Begin(data, intCmp, WithNow(clock.Now), WithMaxMergeSize(16))

	steps := 0
	for {
		// One millisecond of budget at one millisecond per unit: exactly
		// one unit per call.
		more, _ := s.Step(time.Millisecond)
		steps++
		checkRuns(t, s)
		assert.Equal(t, want, counts(data), "array must stay a permutation")
		if !more {
			break
		}
		require.Less(t, steps, 10000, "sort failed to converge")
	}

	requireSorted(t, data)
}

func TestStep_ZeroBudgetStillMakesProgress(t *testing.T) {
	clock := testutil.NewStepClock()
	data := []int{3, 1, 2}

	s := Begin(data, intCmp, WithNow(clock.Now))
	more, touched := s.Step(0)

	assert.False(t, more) // three elements collapse into one unit
	assert.False(t, touched.Empty())
	requireSorted(t, data)
}

func TestStep_NothingLeft(t *testing.T) {
	data := []int{2, 1}
	s := Begin(data, intCmp)
	s.Finish()

	more, touched := s.Step(time.Millisecond)
	assert.False(t, more)
	assert.True(t, touched.Empty())
}

func TestResume_MatchesUninterruptedSort(t *testing.T) {
	clock := testutil.NewAutoClock(time.Millisecond)
	original := randomInts(t, 300, 80, 21)

	oneShot := append([]int(nil), original...)
	Begin(oneShot, intCmp).Finish()

	paused := append([]int(nil), original...)
	s := Begin(paused, intCmp, WithNow(clock.Now), WithMaxMergeSize(16))
	for i := 0; i < 25; i++ {
		if more, _ := s.Step(time.Millisecond); !more {
			break
		}
	}
	state := s.Runs()

	resumed := Resume(paused, intCmp, state, WithMaxMergeSize(16))
	checkRuns(t, resumed)
	resumed.Finish()

	assert.Equal(t, oneShot, paused)
}

func TestResume_AfterRemovals(t *testing.T) {
	clock := testutil.NewAutoClock(time.Millisecond)
	data := randomInts(t, 120, 40, 5)

	s := Begin(data, intCmp, WithNow(clock.Now), WithMaxMergeSize(8))
	for i := 0; i < 30; i++ {
		if more, _ := s.Step(time.Millisecond); !more {
			break
		}
	}
	state := s.Runs()
	require.False(t, state.Empty())

	// Drop a handful of elements, some inside the covered prefix, some
	// beyond it.
	removed := []int{1, 7, 30, 77, 119}
	want := counts(data)
	kept := data[:0]
	next := 0
	for i, v := range data {
		if next < len(removed) && i == removed[next] {
			want[v]--
			if want[v] == 0 {
				delete(want, v)
			}
			next++
			continue
		}
		kept = append(kept, v)
	}
	data = kept

	resumed := Resume(data, intCmp, state.WithoutIndices(removed))
	checkRuns(t, resumed)
	resumed.Finish()

	requireSorted(t, data)
	assert.Equal(t, want, counts(data))
}

func TestRunState_WithoutIndices(t *testing.T) {
	st := RunState{lens: []int{10, 10}}

	assert.Equal(t, []int{9, 10}, st.WithoutIndices([]int{3}).lens)
	assert.Equal(t, []int{10, 9}, st.WithoutIndices([]int{15}).lens)
	assert.Equal(t, []int{9, 9}, st.WithoutIndices([]int{0, 19}).lens)
	assert.Equal(t, []int{10, 10}, st.WithoutIndices([]int{25, 30}).lens, "beyond covered prefix")
	assert.Equal(t, []int{10}, st.WithoutIndices([]int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}).lens, "emptied run dropped")
	assert.True(t, RunState{}.WithoutIndices([]int{1}).Empty())
}

func TestRunState_WithoutIndicesRejectsUnsorted(t *testing.T) {
	st := RunState{lens: []int{5}}
	assert.Panics(t, func() { st.WithoutIndices([]int{3, 1}) })
}

func TestRunState_Covered(t *testing.T) {
	assert.Equal(t, 0, RunState{}.Covered())
	assert.Equal(t, 17, RunState{lens: []int{10, 7}}.Covered())
}

func TestResume_IncompatibleStatePanics(t *testing.T) {
	data := []int{1, 2, 3}
	assert.Panics(t, func() {
		Resume(data, intCmp, RunState{lens: []int{4}})
	})
	assert.Panics(t, func() {
		Resume(data, intCmp, RunState{lens: []int{2, -1}})
	})
}

func TestBegin_NilComparePanics(t *testing.T) {
	assert.Panics(t, func() { Begin([]int{1}, nil) })
}

func TestWithMaxMergeSize_NegativePanics(t *testing.T) {
	assert.Panics(t, func() { WithMaxMergeSize(-1) })
}

func TestPartialMerges_PreserveStability(t *testing.T) {
	rng := rand.New(rand.NewSource(29))
	data := make([]pair, 600)
	for i := range data {
		data[i] = pair{key: rng.Intn(10), seq: i}
	}

	s := Begin(data, pairCmp, WithMaxMergeSize(8))
	s.Finish()

	for i := 1; i < len(data); i++ {
		require.LessOrEqual(t, data[i-1].key, data[i].key)
		if data[i-1].key == data[i].key {
			require.Less(t, data[i-1].seq, data[i].seq, "stability broken at %d", i)
		}
	}
}

func TestScanned_GrowsToLength(t *testing.T) {
	clock := testutil.NewAutoClock(time.Millisecond)
	data := randomInts(t, 200, 500, 13)

	s := Begin(data, intCmp, WithNow(clock.Now), WithMaxMergeSize(16))
	assert.Equal(t, 0, s.Scanned())

	prev := 0
	for {
		more, _ := s.Step(time.Millisecond)
		require.GreaterOrEqual(t, s.Scanned(), prev)
		prev = s.Scanned()
		if !more {
			break
		}
	}
	assert.Equal(t, len(data), s.Scanned())
}

func TestRange_Basics(t *testing.T) {
	assert.True(t, Range{}.Empty())
	assert.Equal(t, 0, Range{}.Len())
	assert.Equal(t, 3, Range{Start: 2, End: 5}.Len())

	u := Range{Start: 2, End: 5}.Union(Range{Start: 4, End: 9})
	assert.Equal(t, Range{Start: 2, End: 9}, u)
	assert.Equal(t, Range{Start: 1, End: 2}, Range{}.Union(Range{Start: 1, End: 2}))
	assert.Equal(t, "[2,5)", Range{Start: 2, End: 5}.String())
	assert.Equal(t, "[)", Range{}.String())
}

func TestMinRunLength(t *testing.T) {
	assert.Equal(t, 0, minRunLength(0))
	assert.Equal(t, 31, minRunLength(31))
	assert.Equal(t, 16, minRunLength(32))
	assert.Equal(t, 17, minRunLength(33))
	assert.Equal(t, 16, minRunLength(64))
	assert.Equal(t, 25, minRunLength(100))
}
