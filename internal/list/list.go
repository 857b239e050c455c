// Package list defines the observable sequence surface shared by sources
// and projections: an ordered, randomly addressable collection that emits
// one Splice event per mutation.
package list

import (
	"fmt"

	"github.com/roach88/sortview/internal/event"
)

// Splice describes a single contiguous mutation: Removed items were replaced
// by Added items at Position. Position is expressed in the sequence's state
// after the mutation (standard splice semantics). A pure reorder is encoded
// as Removed == Added over the reordered range.
type Splice struct {
	Position int
	Removed  int
	Added    int
}

// Model is an observable, randomly addressable ordered collection.
//
// At returns (zero, false) when the index is out of range; observers racing
// a pending notification must be able to probe past the end without
// faulting. Watch registers a mutation observer and returns its cancel
// function. Implementations are single-loop objects, not goroutine-safe.
type Model[T any] interface {
	Len() int
	At(i int) (T, bool)
	Watch(fn func(Splice)) (cancel func())
}

// Array is the reference Model implementation: a slice-backed mutable list.
type Array[T any] struct {
	items []T
	hub   event.Hub[Splice]
}

// NewArray returns an Array seeded with items.
func NewArray[T any](items ...T) *Array[T] {
	a := &Array[T]{}
	if len(items) > 0 {
		a.items = append(a.items, items...)
	}
	return a
}

// Len reports the number of items.
func (a *Array[T]) Len() int {
	return len(a.items)
}

// At returns the item at index i, or (zero, false) out of range.
func (a *Array[T]) At(i int) (T, bool) {
	if i < 0 || i >= len(a.items) {
		var zero T
		return zero, false
	}
	return a.items[i], true
}

// Watch subscribes fn to mutation events.
func (a *Array[T]) Watch(fn func(Splice)) func() {
	return a.hub.Subscribe(fn)
}

// Splice replaces removed items at position pos with add, emitting one
// event. It panics if pos or removed reach outside the current bounds.
func (a *Array[T]) Splice(pos, removed int, add ...T) {
	if pos < 0 || removed < 0 || pos+removed > len(a.items) {
		panic(fmt.Sprintf("list: splice (%d,%d) out of range for %d items", pos, removed, len(a.items)))
	}
	if removed == 0 && len(add) == 0 {
		return
	}

	tail := a.items[pos+removed:]
	next := make([]T, 0, len(a.items)-removed+len(add))
	next = append(next, a.items[:pos]...)
	next = append(next, add...)
	next = append(next, tail...)

	// Zero the old backing so replaced items become collectable.
	var zero T
	for i := pos; i < len(a.items); i++ {
		a.items[i] = zero
	}
	a.items = next

	a.hub.Emit(Splice{Position: pos, Removed: removed, Added: len(add)})
}

// Append adds items at the tail.
func (a *Array[T]) Append(items ...T) {
	a.Splice(len(a.items), 0, items...)
}

// Insert adds items before index i.
func (a *Array[T]) Insert(i int, items ...T) {
	a.Splice(i, 0, items...)
}

// Remove deletes n items starting at index i.
func (a *Array[T]) Remove(i, n int) {
	a.Splice(i, n)
}

// Set replaces the whole contents.
func (a *Array[T]) Set(items ...T) {
	a.Splice(0, len(a.items), items...)
}

// Items returns a copy of the current contents.
func (a *Array[T]) Items() []T {
	out := make([]T, len(a.items))
	copy(out, a.items)
	return out
}
