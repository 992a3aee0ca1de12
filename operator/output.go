package operator

import (
	"fmt"

	"github.com/TimelyDataflow/timely-dataflow-sub000/capability"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// DefaultBufferCapacity is the record count at which a Buffer flushes
// itself without waiting for the timestamp to change, matching the
// teacher's own preference for small fixed batch sizes over unbounded
// accumulation (dist/causal.go batches proposals in fixed-size rounds).
const DefaultBufferCapacity = 1024

// PushFunc is how a Buffer hands a completed batch downstream. final is
// set exactly once, on the handle's own Close, to signal "end of batch"
// per spec.md §4.7 — the Go expression of pushing a terminal None.
type PushFunc[T any, R any] func(t T, records []R, final bool)

// Buffer accumulates records under a single open timestamp and flushes
// them downstream when the timestamp changes, the handle is closed, or
// the buffer reaches capacity.
type Buffer[T order.PartialOrder[T], R any] struct {
	capacity int
	open     bool
	openTime T
	records  []R
	push     PushFunc[T, R]
}

// NewBuffer returns an empty Buffer that calls push on every flush.
func NewBuffer[T order.PartialOrder[T], R any](capacity int, push PushFunc[T, R]) *Buffer[T, R] {
	if capacity <= 0 {
		capacity = DefaultBufferCapacity
	}
	return &Buffer[T, R]{capacity: capacity, push: push}
}

// SetTime switches the buffer to t, flushing first if a different
// timestamp was open.
func (b *Buffer[T, R]) SetTime(t T) {
	if b.open && b.openTime != t {
		b.Flush()
	}
	b.openTime = t
	b.open = true
}

// Give appends r to the buffer, flushing immediately if this reaches
// capacity.
func (b *Buffer[T, R]) Give(r R) {
	b.records = append(b.records, r)
	if len(b.records) >= b.capacity {
		b.Flush()
	}
}

// Flush pushes any accumulated records downstream and empties the
// buffer. A no-op if the buffer is currently empty.
func (b *Buffer[T, R]) Flush() {
	if len(b.records) == 0 {
		return
	}
	recs := b.records
	b.records = nil
	b.push(b.openTime, recs, false)
}

// Session is a handle's write surface for one capability's time, valid
// only for the duration it is held. Additional records Give()n flush
// automatically at Buffer capacity; remaining records flush when the
// session ends (spec.md §4.7: "on drop of the session, any remaining
// records are flushed").
type Session[T order.PartialOrder[T], R any] struct {
	buffer *Buffer[T, R]
}

// Give appends a record to the session's buffer.
func (s *Session[T, R]) Give(r R) {
	s.buffer.Give(r)
}

// Close flushes the session's remaining buffered records. The output
// handle itself remains open for later sessions.
func (s *Session[T, R]) Close() {
	s.buffer.Flush()
}

// OutputHandle is the push endpoint spec.md §4.7 describes: a Session is
// opened against a capability naming this output, and the handle itself
// is closed exactly once, at which point a final "end of batch" signal
// is pushed downstream.
type OutputHandle[T order.PartialOrder[T], R any] struct {
	port   int
	batch  any
	buffer *Buffer[T, R]
	closed bool
}

// NewOutputHandle returns a closed-over push endpoint for output port.
// batch must be the same change-batch pointer every capability minted
// for this output is charged against (see capability.New), so that
// Session can reject a capability naming a different output.
func NewOutputHandle[T order.PartialOrder[T], R any](port int, batchIdentity any, capacity int, push PushFunc[T, R]) *OutputHandle[T, R] {
	return &OutputHandle[T, R]{
		port:   port,
		batch:  batchIdentity,
		buffer: NewBuffer[T, R](capacity, push),
	}
}

// Session validates that cap authorizes this output and returns a
// writer open at cap.Time(), flushing first if a different time was
// previously open. Session panics if cap was minted for a different
// output's change-batch, per spec.md §7's capability-misuse class.
func (h *OutputHandle[T, R]) Session(cap *capability.Capability[T]) *Session[T, R] {
	if any(cap.Batch()) != h.batch {
		panic(fmt.Sprintf("operator: session opened against a capability for a different output (port %d)", h.port))
	}
	h.buffer.SetTime(cap.Time())
	return &Session[T, R]{buffer: h.buffer}
}

// Close flushes any remaining buffered records and pushes the terminal
// "end of batch" signal downstream. Close is idempotent.
func (h *OutputHandle[T, R]) Close() {
	if h.closed {
		return
	}
	h.closed = true
	h.buffer.Flush()
	h.buffer.push(h.buffer.openTime, nil, true)
}
