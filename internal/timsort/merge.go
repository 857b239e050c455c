package timsort

// Merge geometry after trimming:
//
//	[origBase1, base1)              left-run lead, already in place
//	[base1, base1+len1)             left elements that must move
//	[base2, base2+active2)          right elements that must move
//	[base2+active2, base2+origLen2) right-run tail, already in place
type geom struct {
	origBase1 int
	origLen1  int
	origLen2  int
	base1     int
	len1      int
	base2     int
	active2   int
}

// mergeAt merges runs i and i+1. Both runs are first trimmed to the window
// that actually has to move; if the remaining work exceeds the max merge
// size the merge advances partially, leaving three valid pending runs on
// the stack. Returns the range of indexes whose elements moved.
func (s *Session[E]) mergeAt(i int) Range {
	r1, r2 := s.runs[i], s.runs[i+1]

	g := geom{
		origBase1: r1.base,
		origLen1:  r1.len,
		origLen2:  r2.len,
		base2:     r2.base,
	}

	// Left-run elements no larger than the right run's head are in place.
	k := s.firstAbove(s.data[g.base2], r1.base, r1.base+r1.len, true)
	g.base1 = k
	g.len1 = r1.len - (k - r1.base)
	if g.len1 == 0 {
		s.combine(i, g)
		return Range{}
	}

	// Right-run elements no smaller than the left run's tail are in place.
	last := s.data[g.base1+g.len1-1]
	g.active2 = s.firstAbove(last, g.base2, g.base2+r2.len, false) - g.base2

	if g.len1 <= g.active2 {
		return s.mergeLo(i, g)
	}
	return s.mergeHi(i, g)
}

// mergeLo merges with the smaller left side buffered, filling from the low
// end. Ties take the left element, preserving stability.
func (s *Session[E]) mergeLo(i int, g geom) Range {
	limit := g.len1 + g.active2
	if s.maxMerge > 0 && limit > s.maxMerge {
		limit = s.maxMerge
	}

	tmp := s.ensureTmp(g.len1)
	copy(tmp, s.data[g.base1:g.base1+g.len1])

	d := g.base1
	c1, c2 := 0, 0
	for d < g.base1+limit && c1 < g.len1 && c2 < g.active2 {
		if s.cmp(s.data[g.base2+c2], tmp[c1]) < 0 {
			s.data[d] = s.data[g.base2+c2]
			c2++
		} else {
			s.data[d] = tmp[c1]
			c1++
		}
		d++
	}

	switch {
	case c1 == g.len1:
		// Left side exhausted; the rest of the right run is already in place.
		s.combine(i, g)
		return Range{Start: g.base1, End: d}
	case c2 == g.active2:
		// Right side exhausted; the left remainder slides into place.
		nrem := g.len1 - c1
		copy(s.data[d:d+nrem], tmp[c1:g.len1])
		s.combine(i, g)
		return Range{Start: g.base1, End: d + nrem}
	default:
		// Unit budget reached: relocate the left remainder so the array
		// stays a valid permutation, then re-split the leftovers into
		// pending runs.
		nrem := g.len1 - c1
		copy(s.data[d:d+nrem], tmp[c1:g.len1])
		lead := g.base1 - g.origBase1
		s.replaceRuns(i,
			run{base: g.origBase1, len: lead + limit},
			run{base: g.base1 + limit, len: nrem},
			run{base: g.base2 + c2, len: g.origLen2 - c2},
		)
		return Range{Start: g.base1, End: d + nrem}
	}
}

// mergeHi merges with the smaller right side buffered, filling from the
// high end. Ties take the right element, which keeps left-run elements in
// front and the sort stable.
func (s *Session[E]) mergeHi(i int, g geom) Range {
	limit := g.len1 + g.active2
	if s.maxMerge > 0 && limit > s.maxMerge {
		limit = s.maxMerge
	}

	tmp := s.ensureTmp(g.active2)
	copy(tmp, s.data[g.base2:g.base2+g.active2])

	end := g.base2 + g.active2
	d := end - 1
	i1 := g.len1 - 1
	i2 := g.active2 - 1
	for d >= end-limit && i1 >= 0 && i2 >= 0 {
		if s.cmp(tmp[i2], s.data[g.base1+i1]) < 0 {
			s.data[d] = s.data[g.base1+i1]
			i1--
		} else {
			s.data[d] = tmp[i2]
			i2--
		}
		d--
	}

	switch {
	case i2 < 0:
		// Right side exhausted; the left remainder is already in place.
		s.combine(i, g)
		return Range{Start: d + 1, End: end}
	case i1 < 0:
		// Left side exhausted; the right remainder slides into place.
		copy(s.data[g.base1:g.base1+i2+1], tmp[:i2+1])
		s.combine(i, g)
		return Range{Start: g.base1, End: end}
	default:
		// Unit budget reached: relocate the right remainder and re-split.
		rem2 := i2 + 1
		copy(s.data[g.base1+i1+1:g.base1+i1+1+rem2], tmp[:rem2])
		lead := g.base1 - g.origBase1
		tail := g.origLen2 - g.active2
		s.replaceRuns(i,
			run{base: g.origBase1, len: lead + i1 + 1},
			run{base: g.base1 + i1 + 1, len: rem2},
			run{base: end - limit, len: limit + tail},
		)
		return Range{Start: g.base1 + i1 + 1, End: end}
	}
}

// combine records that runs i and i+1 are now one sorted run.
func (s *Session[E]) combine(i int, g geom) {
	s.runs[i] = run{base: g.origBase1, len: g.origLen1 + g.origLen2}
	s.runs = append(s.runs[:i+1], s.runs[i+2:]...)
}

// replaceRuns substitutes runs i and i+1 with the given runs.
func (s *Session[E]) replaceRuns(i int, with ...run) {
	out := make([]run, 0, len(s.runs)-2+len(with))
	out = append(out, s.runs[:i]...)
	out = append(out, with...)
	out = append(out, s.runs[i+2:]...)
	s.runs = out
}

// firstAbove returns the first index in data[lo:hi) whose element orders
// strictly after key (strict), or at-or-after key (non-strict).
func (s *Session[E]) firstAbove(key E, lo, hi int, strict bool) int {
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := s.cmp(key, s.data[mid])
		if c < 0 || (!strict && c == 0) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func (s *Session[E]) ensureTmp(n int) []E {
	if cap(s.tmp) < n {
		s.tmp = make([]E, n)
	}
	return s.tmp[:n]
}
