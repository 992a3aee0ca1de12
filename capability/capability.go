// Package capability implements spec.md §3's Capability and §4.7's
// CapabilitySet: the owned tokens that authorize an operator to emit
// messages at a timestamp on a specific output, and the sole source of
// held timestamps the reachability tracker (package pointstamp) observes.
//
// Capabilities have no destructor in Go; callers must call Release
// explicitly when a capability is no longer held, exactly as the teacher's
// own resources (e.g. tlc/minnet/node.go's peer pipes) are torn down by an
// explicit call rather than relying on scope exit.
package capability

import (
	"fmt"

	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// Capability is an owned token authorizing emission of messages bearing
// timestamp Time() on a specific operator output. Each live capability
// contributes +1 to its output's internal change-batch at (out, Time());
// Release contributes -1.
type Capability[T order.PartialOrder[T]] struct {
	time     T
	batch    *changebatch.ChangeBatch[T]
	released bool
}

// New constructs a capability at time t, charging batch (the owning
// output's internal change-batch) with +1 at t.
func New[T order.PartialOrder[T]](t T, batch *changebatch.ChangeBatch[T]) *Capability[T] {
	batch.Update(t, 1)
	return &Capability[T]{time: t, batch: batch}
}

// Time returns the timestamp this capability authorizes emission at.
func (c *Capability[T]) Time() T {
	return c.time
}

// Batch returns the output change-batch this capability is charged
// against, letting an OutputHandle's Session confirm a capability names
// its own output before accepting it (spec.md §7's "session opened
// against a capability for a different output" misuse class).
func (c *Capability[T]) Batch() *changebatch.ChangeBatch[T] {
	return c.batch
}

// Release drops the capability, charging its output's change-batch with
// -1 at Time(). Release is idempotent: releasing an already-released
// capability is a no-op, matching the teacher's tolerance of redundant
// teardown calls in dist/causal.go's peer shutdown paths.
func (c *Capability[T]) Release() {
	if c.released {
		return
	}
	c.released = true
	c.batch.Update(c.time, -1)
}

// Delayed returns a new capability at t, which must be >= this
// capability's own time. The returned capability is independent: it does
// not consume or release the receiver, and must be released on its own.
// Delayed panics on misuse (t not >= c.Time()) per spec.md §7's
// capability-misuse error class — a programming error, not a recoverable
// one.
//
// Composing two delayed calls is equivalent to one delayed call to the
// final time, per spec.md §8's round-trip law: cap.Delayed(t).Delayed(t')
// == cap.Delayed(t') whenever t <= t'.
func (c *Capability[T]) Delayed(t T) *Capability[T] {
	if !c.time.LessEqual(t) {
		panic(fmt.Sprintf("capability: cannot delay from %v to %v: not less-equal", c.time, t))
	}
	return New(t, c.batch)
}

// Downgrade mutates this capability in place to a new, later time,
// releasing the old time's contribution and acquiring the new one
// atomically (no observer ever sees both counted). Panics on misuse like
// Delayed.
func (c *Capability[T]) Downgrade(t T) {
	if !c.time.LessEqual(t) {
		panic(fmt.Sprintf("capability: cannot downgrade from %v to %v: not less-equal", c.time, t))
	}
	c.batch.Update(c.time, -1)
	c.batch.Update(t, 1)
	c.time = t
}
