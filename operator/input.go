package operator

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/capability"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// queuedMessage is one pending arrival at an input port: the capability
// under which it was sent, and its payload.
type queuedMessage[T order.PartialOrder[T], C Container] struct {
	cap  *capability.Capability[T]
	data C
}

// InputHandle is the pull endpoint spec.md §4.7 describes: iteration
// yields (capability, container) pairs, and consumption is accounted
// automatically as each pair is visited — Go has no destructor to hook
// "container dropped", so accounting happens at the point ForEach finishes
// visiting a message rather than when the caller's reference to it goes
// out of scope.
type InputHandle[T order.PartialOrder[T], C Container] struct {
	port     int
	queue    []queuedMessage[T, C]
	consumed *changebatch.ChangeBatch[T]
}

// NewInputHandle returns an empty input handle for the given port.
func NewInputHandle[T order.PartialOrder[T], C Container](port int) *InputHandle[T, C] {
	return &InputHandle[T, C]{port: port, consumed: changebatch.New[T]()}
}

// Port returns this handle's input port index.
func (h *InputHandle[T, C]) Port() int {
	return h.port
}

// Push enqueues an arrived message under cap, called by the channel
// puller delivering it (package channel).
func (h *InputHandle[T, C]) Push(cap *capability.Capability[T], data C) {
	h.queue = append(h.queue, queuedMessage[T, C]{cap: cap, data: data})
}

// ForEach visits every currently queued message in arrival order, then
// empties the queue. Each message's record count is charged to the
// consumed change-batch as it is visited.
func (h *InputHandle[T, C]) ForEach(f func(cap *capability.Capability[T], data C)) {
	for _, m := range h.queue {
		f(m.cap, m.data)
		h.consumed.Update(m.cap.Time(), m.data.RecordCount())
	}
	h.queue = h.queue[:0]
}

// Consumed returns the change-batch of records this handle has accounted
// as consumed, for folding into the operator's conservation bookkeeping
// (spec.md §8 invariant 3).
func (h *InputHandle[T, C]) Consumed() *changebatch.ChangeBatch[T] {
	return h.consumed
}

// Empty reports whether there are no queued messages awaiting a visit.
func (h *InputHandle[T, C]) Empty() bool {
	return len(h.queue) == 0
}
