// Package scheduler implements spec.md §4.6's cooperative, single-
// threaded-per-worker scheduling loop: the activation queue, the
// park/wake decision, and dispatch.
//
// Grounded on tlc/minnet/node.go's per-node goroutine driven by a
// sync.Mutex-guarded receive channel (the "one thread per participant,
// woken by arriving messages" shape); SPEC_FULL.md §6.4 notes the
// teacher's own bucket-activation design recovered from
// original_source/src/scheduling/activate.rs is not carried forward,
// since a single worker's loop has exactly one consumer and no bucket
// contention to avoid.
package scheduler

import (
	"strconv"
	"strings"
	"sync"
)

// Activations is spec.md §4.6's multiset of operator addresses awaiting
// a schedule call: activating an address already pending is a no-op, and
// Drain atomically empties the queue in the order addresses were first
// activated since the last drain.
type Activations struct {
	mu       sync.Mutex
	pending  map[string]bool
	order    []string
	addrs    map[string][]int
	doorbell chan struct{}
}

// NewActivations returns an empty activation queue.
func NewActivations() *Activations {
	return &Activations{
		pending:  make(map[string]bool),
		addrs:    make(map[string][]int),
		doorbell: make(chan struct{}, 1),
	}
}

func addressKey(addr []int) string {
	var b strings.Builder
	for i, v := range addr {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// Activate marks addr runnable, waking a parked consumer. Re-activating
// an address already pending since the last Drain is a no-op, per
// spec.md §4.6: "an address activated N times is still scheduled once."
func (a *Activations) Activate(addr []int) {
	k := addressKey(addr)
	a.mu.Lock()
	if !a.pending[k] {
		a.pending[k] = true
		a.order = append(a.order, k)
		a.addrs[k] = addr
	}
	a.mu.Unlock()
	select {
	case a.doorbell <- struct{}{}:
	default:
	}
}

// Drain atomically returns every currently pending address, in the
// order each was first activated, and empties the queue.
func (a *Activations) Drain() [][]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]int, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.addrs[k])
		delete(a.pending, k)
		delete(a.addrs, k)
	}
	a.order = a.order[:0]
	return out
}

// Len reports the number of distinct addresses currently pending.
func (a *Activations) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.order)
}

// Doorbell returns the channel a parked scheduler loop selects on to be
// woken by the next Activate call.
func (a *Activations) Doorbell() <-chan struct{} {
	return a.doorbell
}
