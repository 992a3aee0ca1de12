// Package antichain implements spec.md §3's Antichain<T>: a set of
// mutually incomparable elements, plus the MutableAntichain that tracks a
// counted multiset and incrementally maintains the antichain of its
// minimal elements with strictly positive count.
//
// This is the module's own novel abstraction; nothing in the teacher
// repository implements it directly, though dist/vec.go's elementwise
// vector comparisons (le, max) are the closest stylistic precedent for
// "compare a handful of partially ordered values cheaply".
package antichain

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// Antichain is a set of mutually incomparable elements of T.
type Antichain[T order.PartialOrder[T]] struct {
	elements []T
}

// New returns an empty antichain.
func New[T order.PartialOrder[T]]() *Antichain[T] {
	return &Antichain[T]{}
}

// Elements returns the antichain's current elements. The returned slice
// must not be mutated by the caller.
func (a *Antichain[T]) Elements() []T {
	return a.elements
}

// Insert adds t to the antichain, per spec.md §3: discards t if some
// existing element is <= t; otherwise removes every existing element >= t
// and adds t. Re-inserting an element already dominated by the antichain
// is a no-op, and the antichain is left unchanged — this is the round-trip
// law spec.md §8 requires ("insert(t) into an antichain containing t is a
// no-op").
// Insert reports whether the antichain was actually modified, which the
// reachability tracker's path-summary fixpoint (package pointstamp) uses
// to detect convergence.
func (a *Antichain[T]) Insert(t T) bool {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return false
		}
	}
	kept := a.elements[:0]
	for _, e := range a.elements {
		if !t.LessEqual(e) {
			kept = append(kept, e)
		}
	}
	a.elements = append(kept, t)
	return true
}

// LessEqual reports whether some element of the antichain is <= t.
func (a *Antichain[T]) LessEqual(t T) bool {
	for _, e := range a.elements {
		if e.LessEqual(t) {
			return true
		}
	}
	return false
}

// LessThan reports whether some element of the antichain is strictly < t.
func (a *Antichain[T]) LessThan(t T) bool {
	for _, e := range a.elements {
		if order.Less[T](e, t) {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the antichain has no elements — the empty
// frontier, meaning no further timestamps can ever appear.
func (a *Antichain[T]) IsEmpty() bool {
	return len(a.elements) == 0
}

// Clone returns an independent copy of the antichain.
func (a *Antichain[T]) Clone() *Antichain[T] {
	c := &Antichain[T]{elements: make([]T, len(a.elements))}
	copy(c.elements, a.elements)
	return c
}

// Equal reports whether a and other contain the same elements (order
// independent).
func (a *Antichain[T]) Equal(other *Antichain[T]) bool {
	if len(a.elements) != len(other.elements) {
		return false
	}
	for _, e := range a.elements {
		found := false
		for _, o := range other.elements {
			if e == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
