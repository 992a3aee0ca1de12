package channel

import (
	"sync"

	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/scheduler"
)

// Pusher is the write half of a channel pact. Its signature matches
// operator.PushFunc exactly, so an operator's OutputHandle can push
// straight into one with no adapter: NewOutputHandle's push argument can
// be a Pusher's Push method value.
type Pusher[T order.PartialOrder[T], R any] interface {
	Push(t T, records []R, final bool)
}

// Message is one entry on a Puller's queue: a batch of records under a
// single timestamp, which worker sent it, and whether it is that batch's
// closing signal.
type Message[T any, R any] struct {
	Time    T
	Records Batch[R]
	Final   bool
	Source  int
}

// Puller is the read half of every pact (Pipeline, Exchange, Broadcast):
// whatever this worker's share of a channel's traffic is, it arrives
// here, to be drained from inside an operator's Schedule call.
type Puller[T order.PartialOrder[T], R any] struct {
	mu    sync.Mutex
	queue []Message[T, R]
	codec *Codec[T, R]
}

func (p *Puller[T, R]) pushLocal(t T, records []R, final bool, source int) {
	p.mu.Lock()
	p.queue = append(p.queue, Message[T, R]{Time: t, Records: Batch[R](records), Final: final, Source: source})
	p.mu.Unlock()
}

// deliver implements inboundSink: decode an inbound frame's payload
// through this channel's codec and enqueue the result exactly as if it
// had arrived locally.
func (p *Puller[T, R]) deliver(source int, payload []byte) {
	t, records, final := p.codec.Decode(payload)
	p.pushLocal(t, records, final, source)
}

// Pull pops the oldest queued message, if any.
func (p *Puller[T, R]) Pull() (Message[T, R], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return Message[T, R]{}, false
	}
	m := p.queue[0]
	p.queue = p.queue[1:]
	return m, true
}

// Empty reports whether no messages are currently queued.
func (p *Puller[T, R]) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) == 0
}

// localPusher delivers directly into a Puller's queue with no encoding
// step: the shape every pact uses for its own worker's destination, and
// the only shape Pipeline ever needs.
type localPusher[T order.PartialOrder[T], R any] struct {
	puller      *Puller[T, R]
	activations *scheduler.Activations
	address     []int
	source      int
}

func (p *localPusher[T, R]) Push(t T, records []R, final bool) {
	p.puller.pushLocal(t, records, final, p.source)
	p.activations.Activate(p.address)
}

// NewPipeline wires two operators within one worker directly through an
// in-memory queue: spec.md §4.8's Pipeline pact, with no allocator and
// no cross-worker exchange involved at all.
func NewPipeline[T order.PartialOrder[T], R any](activations *scheduler.Activations, address []int) (Pusher[T, R], *Puller[T, R]) {
	puller := &Puller[T, R]{}
	pusher := &localPusher[T, R]{puller: puller, activations: activations, address: address}
	return pusher, puller
}
