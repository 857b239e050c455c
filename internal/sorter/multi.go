package sorter

// Multi chains sorters lexicographically: the first non-tie comparison
// wins, later sorters only break ties.
type Multi[T any] struct {
	Base
	children []child[T]
}

type child[T any] struct {
	sorter Interface[T]
	cancel func()
}

// NewMulti returns a chain over the given sorters, primary first.
func NewMulti[T any](sorters ...Interface[T]) *Multi[T] {
	m := &Multi[T]{}
	for _, s := range sorters {
		m.attach(s)
	}
	return m
}

// Compare walks the chain until a sorter breaks the tie.
func (m *Multi[T]) Compare(a, b T) int {
	for _, c := range m.children {
		if r := c.sorter.Compare(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// Order is OrderNone for an empty chain, OrderTotal as soon as any child
// is total, otherwise OrderPartial.
func (m *Multi[T]) Order() Order {
	result := OrderNone
	for _, c := range m.children {
		switch c.sorter.Order() {
		case OrderTotal:
			return OrderTotal
		case OrderPartial:
			result = OrderPartial
		}
	}
	return result
}

// Len reports the number of chained sorters.
func (m *Multi[T]) Len() int {
	return len(m.children)
}

// Append adds a tie-breaker at the end of the chain. Adding one can only
// split existing ties, so the hint is more-strict.
func (m *Multi[T]) Append(s Interface[T]) {
	m.attach(s)
	m.Changed(ChangeMoreStrict)
}

// Remove drops the sorter at index i. Removing one can only merge
// previously split ties, so the hint is less-strict. Out-of-range indexes
// are ignored.
func (m *Multi[T]) Remove(i int) {
	if i < 0 || i >= len(m.children) {
		return
	}
	m.children[i].cancel()
	m.children = append(m.children[:i], m.children[i+1:]...)
	m.Changed(ChangeLessStrict)
}

func (m *Multi[T]) attach(s Interface[T]) {
	// A child change of any kind can reorder the whole chain, so the
	// forwarded hint is the conservative one.
	cancel := s.Watch(func(Change) { m.Changed(ChangeDifferent) })
	m.children = append(m.children, child[T]{sorter: s, cancel: cancel})
}

// Reverse inverts the order of a wrapped sorter.
type Reverse[T any] struct {
	Base
	inner  Interface[T]
	cancel func()
}

// NewReverse returns a sorter ordering exactly opposite to inner.
func NewReverse[T any](inner Interface[T]) *Reverse[T] {
	r := &Reverse[T]{inner: inner}
	if inner != nil {
		r.cancel = inner.Watch(r.Changed)
	}
	return r
}

// Compare swaps the operands of the wrapped comparison.
func (r *Reverse[T]) Compare(a, b T) int {
	if r.inner == nil {
		return 0
	}
	return r.inner.Compare(b, a)
}

// Order mirrors the wrapped sorter's order kind.
func (r *Reverse[T]) Order() Order {
	if r.inner == nil {
		return OrderNone
	}
	return r.inner.Order()
}

// Inner returns the wrapped sorter.
func (r *Reverse[T]) Inner() Interface[T] {
	return r.inner
}
