package sorter

import "cmp"

// Func sorts items with a caller-supplied comparison function.
type Func[T any] struct {
	Base
	cmp func(a, b T) int
}

// NewFunc returns a sorter using cmp. A nil cmp imposes no order.
func NewFunc[T any](cmp func(a, b T) int) *Func[T] {
	return &Func[T]{cmp: cmp}
}

// Compare applies the current comparison function.
func (f *Func[T]) Compare(a, b T) int {
	if f.cmp == nil {
		return 0
	}
	return f.cmp(a, b)
}

// Order reports OrderNone while no function is set.
func (f *Func[T]) Order() Order {
	if f.cmp == nil {
		return OrderNone
	}
	return OrderPartial
}

// SetFunc replaces the comparison function and signals observers.
func (f *Func[T]) SetFunc(cmp func(a, b T) int) {
	f.cmp = cmp
	f.Changed(ChangeDifferent)
}

// ByKey sorts items by an extracted orderable key.
type ByKey[T any, K cmp.Ordered] struct {
	Base
	key      func(T) K
	reversed bool
}

// NewByKey returns a sorter ordering items by key(item) ascending.
func NewByKey[T any, K cmp.Ordered](key func(T) K) *ByKey[T, K] {
	return &ByKey[T, K]{key: key}
}

// Compare orders by the extracted keys.
func (s *ByKey[T, K]) Compare(a, b T) int {
	c := cmp.Compare(s.key(a), s.key(b))
	if s.reversed {
		return -c
	}
	return c
}

// Order reports OrderPartial: distinct items can share a key.
func (s *ByKey[T, K]) Order() Order {
	return OrderPartial
}

// Reversed reports whether the direction is descending.
func (s *ByKey[T, K]) Reversed() bool {
	return s.reversed
}

// SetReversed flips the direction, signalling an exact inversion.
func (s *ByKey[T, K]) SetReversed(reversed bool) {
	if s.reversed == reversed {
		return
	}
	s.reversed = reversed
	s.Changed(ChangeInverted)
}
