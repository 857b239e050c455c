// Package event provides a small synchronous broadcast hub used by the
// observable collection types: sources, sorters, and sorted views all
// publish change events through a Hub.
package event

// Hub delivers values to subscribers synchronously, in subscription order.
//
// Delivery is synchronous on purpose: a subscriber runs inline during Emit
// and may immediately re-query the emitting object, so the emitter must be
// in its final state before calling Emit. Hub is not goroutine-safe; it
// belongs to whichever loop owns the emitting object.
type Hub[E any] struct {
	subs []subscriber[E]
	next int
}

type subscriber[E any] struct {
	id int
	fn func(E)
}

// Subscribe registers fn and returns a cancel function.
//
// Cancelling twice is harmless. A subscriber added while an Emit is in
// progress does not receive that emission; a subscriber cancelled while an
// Emit is in progress receives no further deliveries, including the rest of
// the current one.
func (h *Hub[E]) Subscribe(fn func(E)) func() {
	h.next++
	id := h.next
	h.subs = append(h.subs, subscriber[E]{id: id, fn: fn})
	return func() {
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit invokes every currently registered subscriber with e, in
// subscription order.
func (h *Hub[E]) Emit(e E) {
	if len(h.subs) == 0 {
		return
	}
	// Snapshot so that subscribe/cancel from inside a handler cannot
	// disturb the iteration.
	subs := h.subs
	for _, s := range subs {
		if h.alive(s.id) {
			s.fn(e)
		}
	}
}

// Len reports the number of active subscribers.
func (h *Hub[E]) Len() int {
	return len(h.subs)
}

func (h *Hub[E]) alive(id int) bool {
	for _, s := range h.subs {
		if s.id == id {
			return true
		}
	}
	return false
}
