// Package changebatch implements the compact counted multiset that
// progress messages, capabilities, and the reachability tracker all use to
// describe "how many of these have we seen, with what sign" — spec.md §3's
// CB<K>.
//
// A ChangeBatch is not required to be consolidated between updates; it is
// a plain append log until Compact (or Drain, which compacts first) is
// called. This mirrors the teacher's own counted-multiset style in
// model/set.go and dist/vec.go, generalized to an arbitrary comparable key.
package changebatch

// Delta is a single (key, signed count) entry, the unit this package and
// its callers pass around in bulk (Extend, Drain).
type Delta[K comparable] struct {
	Key   K
	Delta int64
}

// ChangeBatch is a compact counted multiset of (K, delta) pairs. The zero
// value is an empty, usable batch.
type ChangeBatch[K comparable] struct {
	updates []Delta[K]
}

// New returns an empty change-batch. Equivalent to the zero value; it
// exists so callers constructing one as a pointer field can write
// changebatch.New[K]() alongside antichain.New[T]() and capability.New.
func New[K comparable]() *ChangeBatch[K] {
	return &ChangeBatch[K]{}
}

// Update records a delta against key. Multiple updates against the same
// key accumulate; the batch is not required to be consolidated until
// Compact is called.
func (b *ChangeBatch[K]) Update(key K, delta int64) {
	if delta == 0 {
		return
	}
	b.updates = append(b.updates, Delta[K]{key, delta})
}

// Extend appends every delta in pairs.
func (b *ChangeBatch[K]) Extend(pairs []Delta[K]) {
	for _, p := range pairs {
		b.Update(p.Key, p.Delta)
	}
}

// IsEmpty reports whether the batch, once compacted, has any entries.
// Compact is run as needed so this is accurate even before an explicit
// Compact call.
func (b *ChangeBatch[K]) IsEmpty() bool {
	b.Compact()
	return len(b.updates) == 0
}

// Compact consolidates the batch in place: each key appears at most once,
// and any key whose accumulated delta is zero is dropped. Compact is
// idempotent — compacting an already-compact batch is a no-op.
func (b *ChangeBatch[K]) Compact() {
	if len(b.updates) == 0 {
		return
	}
	totals := make(map[K]int64, len(b.updates))
	seenOrder := make([]K, 0, len(b.updates))
	for _, u := range b.updates {
		if _, seen := totals[u.Key]; !seen {
			seenOrder = append(seenOrder, u.Key)
		}
		totals[u.Key] += u.Delta
	}
	compacted := b.updates[:0]
	for _, k := range seenOrder {
		if d := totals[k]; d != 0 {
			compacted = append(compacted, Delta[K]{k, d})
		}
	}
	b.updates = compacted
}

// Drain compacts the batch and returns its (key, delta) pairs, leaving the
// batch empty. This is the primary way callers consume a batch: the
// progress broadcaster drains a batch into an outgoing wire message, and
// the reachability tracker drains incoming messages into its pointstamp
// counts.
func (b *ChangeBatch[K]) Drain() []Delta[K] {
	b.Compact()
	out := b.updates
	b.updates = nil
	return out
}

// Len returns the number of (possibly uncompacted) entries currently
// buffered.
func (b *ChangeBatch[K]) Len() int {
	return len(b.updates)
}

// Clone returns an independent copy of the batch's current (uncompacted)
// contents.
func (b *ChangeBatch[K]) Clone() *ChangeBatch[K] {
	clone := &ChangeBatch[K]{updates: make([]Delta[K], len(b.updates))}
	copy(clone.updates, b.updates)
	return clone
}
