// Package sorter defines the comparator contract consumed by sorted views,
// plus a small family of implementations: custom functions, extracted keys,
// locale-collated strings, multi-level chains, and reversal.
//
// A sorter may change over time. Implementations broadcast a Change hint to
// observers describing how much reordering the change may cause; consumers
// that cannot exploit the hint treat every change as ChangeDifferent.
package sorter

import "github.com/roach88/sortview/internal/event"

// Order describes how much ordering a sorter imposes.
type Order int

const (
	// OrderPartial means distinct items may compare equal, so the final
	// arrangement depends on the stable sort's input order.
	OrderPartial Order = iota
	// OrderNone means the sorter imposes no order at all; consumers fall
	// back to the unsorted source arrangement.
	OrderNone
	// OrderTotal means compare is zero only for indistinguishable items.
	OrderTotal
)

// String returns the lowercase name of the order kind.
func (o Order) String() string {
	switch o {
	case OrderPartial:
		return "partial"
	case OrderNone:
		return "none"
	case OrderTotal:
		return "total"
	default:
		return "unknown"
	}
}

// Change hints at the scope of a sorter change.
type Change int

const (
	// ChangeDifferent gives no guarantee about the new order.
	ChangeDifferent Change = iota
	// ChangeInverted means the order is exactly reversed.
	ChangeInverted
	// ChangeLessStrict means items that compared unequal may now tie, but
	// no pair changes direction.
	ChangeLessStrict
	// ChangeMoreStrict means ties may break apart, but no pair changes
	// direction.
	ChangeMoreStrict
)

// String returns the lowercase name of the change hint.
func (c Change) String() string {
	switch c {
	case ChangeDifferent:
		return "different"
	case ChangeInverted:
		return "inverted"
	case ChangeLessStrict:
		return "less-strict"
	case ChangeMoreStrict:
		return "more-strict"
	default:
		return "unknown"
	}
}

// Interface is the comparator contract.
//
// Compare returns a negative value when a orders before b, zero when they
// tie, positive when a orders after b. Order reports the current order
// kind; a sorter whose Order is OrderNone may be ignored entirely. Watch
// subscribes to change hints and returns a cancel function.
type Interface[T any] interface {
	Compare(a, b T) int
	Order() Order
	Watch(fn func(Change)) (cancel func())
}

// Base provides the observer half of Interface. Implementations embed it
// and call Changed after mutating their configuration.
type Base struct {
	hub event.Hub[Change]
}

// Watch subscribes fn to change hints.
func (b *Base) Watch(fn func(Change)) func() {
	return b.hub.Subscribe(fn)
}

// Changed broadcasts a change hint to all observers.
func (b *Base) Changed(c Change) {
	b.hub.Emit(c)
}
