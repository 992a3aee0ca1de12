package capability

import (
	"fmt"

	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// CapabilitySet holds an antichain of capabilities on a single output and
// supports bulk downgrade to a new frontier, per spec.md §4.7. A downgrade
// succeeds only if every element of the target frontier is >= some element
// of the current set; otherwise it fails and the set is left completely
// unchanged (SPEC_FULL.md §11.2, recovered from the original
// implementation's downgrade_all: callers can retry against a fresh target
// without having lost their capabilities).
type CapabilitySet[T order.PartialOrder[T]] struct {
	batch *changebatch.ChangeBatch[T]
	caps  []*Capability[T]
}

// NewSet constructs a CapabilitySet holding one capability per time in
// times, all charged against batch.
func NewSet[T order.PartialOrder[T]](batch *changebatch.ChangeBatch[T], times ...T) *CapabilitySet[T] {
	s := &CapabilitySet[T]{batch: batch}
	for _, t := range times {
		s.caps = append(s.caps, New(t, batch))
	}
	return s
}

// Elements returns the times currently held by this set.
func (s *CapabilitySet[T]) Elements() []T {
	out := make([]T, len(s.caps))
	for i, c := range s.caps {
		out[i] = c.Time()
	}
	return out
}

// Downgrade replaces the set's held capabilities with new ones at each
// time in target. It fails, leaving the set untouched, unless every
// element of target is >= some currently held time.
func (s *CapabilitySet[T]) Downgrade(target []T) error {
	for _, t := range target {
		reachable := false
		for _, c := range s.caps {
			if c.Time().LessEqual(t) {
				reachable = true
				break
			}
		}
		if !reachable {
			return fmt.Errorf("capability: target time %v is not >= any held capability", t)
		}
	}

	old := s.caps
	s.caps = make([]*Capability[T], 0, len(target))
	for _, t := range target {
		s.caps = append(s.caps, New(t, s.batch))
	}
	for _, c := range old {
		c.Release()
	}
	return nil
}

// Release drops every capability currently held by the set, leaving it
// empty.
func (s *CapabilitySet[T]) Release() {
	for _, c := range s.caps {
		c.Release()
	}
	s.caps = nil
}

// Add inserts an already-constructed capability into the set directly,
// taking ownership of it (the caller must not release it itself). Used
// by package operator's Notificator to hold capabilities the operator
// hands it for future notification.
func (s *CapabilitySet[T]) Add(cap *Capability[T]) {
	s.caps = append(s.caps, cap)
}

// Partition splits the set's held capabilities by ready(time), returning
// the ready ones separately along with the rest as a new CapabilitySet;
// the receiver itself is left unchanged. The caller
// becomes responsible for releasing the returned ready capabilities.
func (s *CapabilitySet[T]) Partition(ready func(t T) bool) (readyCaps []*Capability[T], remaining *CapabilitySet[T]) {
	remaining = &CapabilitySet[T]{batch: s.batch}
	for _, c := range s.caps {
		if ready(c.Time()) {
			readyCaps = append(readyCaps, c)
		} else {
			remaining.caps = append(remaining.caps, c)
		}
	}
	return readyCaps, remaining
}
