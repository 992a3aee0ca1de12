package transport

import (
	"sync"

	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// ProgressLog is a timestamp-indexed, garbage-collected log of every
// progress change-batch a Sender has transmitted, kept for
// replay-on-reconnect diagnostics (SPEC_FULL.md §6.3): Since returns the
// entries a peer whose connection dropped and came back may have missed.
//
// Adapted from stack/logging/layer.go's Layer: there, events are
// indexed by a flat TLC Step and trimmed via Obsolete(minStep); here,
// entries are indexed by the scope's own (possibly nested, possibly
// only partially ordered) timestamp type, and trimmed the same way once
// the local frontier has moved past them.
type ProgressLog[T order.PartialOrder[T]] struct {
	mu     sync.Mutex
	byTime map[T][]ProgressEntry[T]
	order  []T
}

// NewProgressLog returns an empty log.
func NewProgressLog[T order.PartialOrder[T]]() *ProgressLog[T] {
	return &ProgressLog[T]{byTime: make(map[T][]ProgressEntry[T])}
}

// Record appends entries, grouping each by its own Time field.
func (l *ProgressLog[T]) Record(entries []ProgressEntry[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range entries {
		if _, ok := l.byTime[e.Time]; !ok {
			l.order = append(l.order, e.Time)
		}
		l.byTime[e.Time] = append(l.byTime[e.Time], e)
	}
}

// Obsolete garbage-collects every logged time the given frontier has
// moved strictly past, mirroring stack/logging/layer.go's
// Obsolete(minStep) GC, generalized from a flat step counter to an
// arbitrary partial order: a time is obsolete once no frontier element
// is still less-equal to it.
func (l *ProgressLog[T]) Obsolete(frontier *antichain.Antichain[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.order[:0]
	for _, t := range l.order {
		if !frontier.LessEqual(t) {
			delete(l.byTime, t)
			continue
		}
		kept = append(kept, t)
	}
	l.order = kept
}

// Since returns every logged entry at a time the frontier has not yet
// passed, in the order each time was first recorded — the replay a
// reconnecting peer is handed.
func (l *ProgressLog[T]) Since(frontier *antichain.Antichain[T]) []ProgressEntry[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ProgressEntry[T]
	for _, t := range l.order {
		if frontier.LessEqual(t) {
			out = append(out, l.byTime[t]...)
		}
	}
	return out
}
