package antichain

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// MutableAntichain maintains per-timestamp counts and exposes the
// antichain of minimal elements with strictly positive count, per
// spec.md §3. Every Update or UpdateBatch call returns the stream of
// (T, ±1) deltas describing how the minimal set changed, which is exactly
// what the reachability tracker propagates as a port's frontier changes
// and what the progress broadcaster puts on the wire.
//
// The minimal set is recomputed from scratch on every call rather than
// patched incrementally, which trivially satisfies spec.md §8's
// "idempotent rebuild" law (the incremental result equals a from-scratch
// computation, because it is one) at the cost of O(n^2) work per update
// over the live count set n — acceptable for the small per-location
// multisets the reachability tracker maintains; a future optimization can
// restrict recomputation to the timestamps a delta's count crossed zero
// on, per spec.md §4.3's "only revisits locations whose counts crossed
// zero".
type MutableAntichain[T order.PartialOrder[T]] struct {
	counts   map[T]int64
	frontier map[T]bool
}

// NewMutable returns an empty MutableAntichain.
func NewMutable[T order.PartialOrder[T]]() *MutableAntichain[T] {
	return &MutableAntichain[T]{
		counts:   make(map[T]int64),
		frontier: make(map[T]bool),
	}
}

// Update applies a single delta and returns the resulting minimal-set
// transitions.
func (m *MutableAntichain[T]) Update(t T, delta int64) []changebatch.Delta[T] {
	m.apply(t, delta)
	return m.recompute()
}

// UpdateBatch drains b and applies every delta in it, returning the
// combined minimal-set transitions.
func (m *MutableAntichain[T]) UpdateBatch(b *changebatch.ChangeBatch[T]) []changebatch.Delta[T] {
	for _, d := range b.Drain() {
		m.apply(d.Key, d.Delta)
	}
	return m.recompute()
}

func (m *MutableAntichain[T]) apply(t T, delta int64) {
	if delta == 0 {
		return
	}
	m.counts[t] += delta
	if m.counts[t] == 0 {
		delete(m.counts, t)
	}
}

func (m *MutableAntichain[T]) recompute() []changebatch.Delta[T] {
	newFrontier := make(map[T]bool, len(m.frontier))
	for t := range m.counts {
		minimal := true
		for u := range m.counts {
			if u != t && order.Less[T](u, t) {
				minimal = false
				break
			}
		}
		if minimal {
			newFrontier[t] = true
		}
	}

	var deltas []changebatch.Delta[T]
	for t := range m.frontier {
		if !newFrontier[t] {
			deltas = append(deltas, changebatch.Delta[T]{Key: t, Delta: -1})
		}
	}
	for t := range newFrontier {
		if !m.frontier[t] {
			deltas = append(deltas, changebatch.Delta[T]{Key: t, Delta: 1})
		}
	}
	m.frontier = newFrontier
	return deltas
}

// Frontier returns the antichain's current minimal elements, as an
// Antichain ready for antichain-level queries (LessEqual, LessThan).
func (m *MutableAntichain[T]) Frontier() *Antichain[T] {
	f := New[T]()
	for t := range m.frontier {
		f.Insert(t)
	}
	return f
}

// Count returns the current live count for t (zero if t has no live
// contributions).
func (m *MutableAntichain[T]) Count(t T) int64 {
	return m.counts[t]
}

// IsEmpty reports whether the multiset is empty (no positive counts at
// all), i.e. the frontier is the empty antichain.
func (m *MutableAntichain[T]) IsEmpty() bool {
	return len(m.counts) == 0
}

// Replay reconstructs an Antichain purely from a sequence of (T, ±1)
// deltas, such as the stream Update/UpdateBatch emit over the lifetime of
// a MutableAntichain. This exists so the round-trip law of spec.md §8
// ("a mutable antichain's emitted history, when replayed, reconstructs
// its current minimal set") is directly testable: replaying the full
// emitted history must equal Frontier().
func Replay[T order.PartialOrder[T]](deltas []changebatch.Delta[T]) *Antichain[T] {
	live := make(map[T]bool)
	for _, d := range deltas {
		switch d.Delta {
		case 1:
			live[d.Key] = true
		case -1:
			delete(live, d.Key)
		}
	}
	a := New[T]()
	for t := range live {
		a.Insert(t)
	}
	return a
}
