package slab

import "sync"

// MergeQueue is a multiple-producer, single-consumer queue of Bytes
// ranges: any goroutine may Push, and the single consumer drains it at
// its own pace. In this module transport.Endpoint keeps one per local
// channel as that channel's outbound queue to one peer: Endpoint.Send
// pushes and the send loop drains. The recv side does not use merge
// queues; it hands each payload straight to its Deliverer.
type MergeQueue struct {
	mu      sync.Mutex
	pending []Bytes
	closed  bool
	stale   bool
	signal  chan struct{}
}

// NewMergeQueue returns an empty, open MergeQueue.
func NewMergeQueue() *MergeQueue {
	return &MergeQueue{signal: make(chan struct{}, 1)}
}

// Push enqueues b and wakes the consumer if it is parked on Signal.
func (q *MergeQueue) Push(b Bytes) {
	q.mu.Lock()
	q.pending = append(q.pending, b)
	q.stale = false
	q.mu.Unlock()
	q.wake()
}

// Close marks the queue as never receiving further pushes — the producer
// has itself been torn down. Drain
// continues to return whatever was already pending.
func (q *MergeQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *MergeQueue) wake() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (q *MergeQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drain appends every currently pending range onto dst and empties the
// queue, returning the extended slice.
func (q *MergeQueue) Drain(dst []Bytes) []Bytes {
	q.mu.Lock()
	dst = append(dst, q.pending...)
	q.pending = nil
	q.mu.Unlock()
	return dst
}

// Signal returns the channel a consumer can select on to be woken when
// new bytes are pushed or the queue is closed, instead of busy-polling
// Drain every scheduler tick.
func (q *MergeQueue) Signal() <-chan struct{} {
	return q.signal
}

// SetStale records that the consumer has observed this queue empty on
// its most recent poll, letting the send loop that shares this staleness
// flag across many queues (spec.md §6.1) skip re-polling a queue it
// already knows is empty until the next Push clears it.
func (q *MergeQueue) SetStale(v bool) {
	q.mu.Lock()
	q.stale = v
	q.mu.Unlock()
}

// Stale reports the flag set by SetStale.
func (q *MergeQueue) Stale() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stale
}
