package channel

import "github.com/TimelyDataflow/timely-dataflow-sub000/order"

// broadcastPusher implements spec.md §4.8's Broadcast pact: every
// pushed batch is forwarded to every peer's own destination pusher. The
// same slice backs every peer's Push call rather than being copied per
// destination — a slice is already a reference to its backing array, so
// this is Go's natural expression of "shared by refcount rather than
// cloned" for every destination local to this process; a remote
// destination's remotePusher still encodes its own independent copy to
// put on the wire, which is unavoidable once a process boundary is
// crossed.
type broadcastPusher[T order.PartialOrder[T], R any] struct {
	raw []Pusher[T, R]
}

func (p *broadcastPusher[T, R]) Push(t T, records []R, final bool) {
	for _, dst := range p.raw {
		dst.Push(t, records, final)
	}
}

// NewBroadcast allocates a fresh channel and returns a Pusher that
// forwards every pushed batch to every peer, plus the Puller this
// worker's own share of broadcast traffic arrives on.
func NewBroadcast[T order.PartialOrder[T], R any](a *Allocator, address []int, codec Codec[T, R]) (Pusher[T, R], *Puller[T, R]) {
	raw, puller := allocate(a, address, codec)
	return &broadcastPusher[T, R]{raw: raw}, puller
}
