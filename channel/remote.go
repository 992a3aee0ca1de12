package channel

import "github.com/TimelyDataflow/timely-dataflow-sub000/order"

// remotePusher encodes a batch through its channel's Codec and hands the
// bytes to the Fabric addressed at peer — spec.md §4.9's send-side
// framing, with the actual socket and buffered-writer machinery living
// in package transport behind the Fabric interface.
type remotePusher[T order.PartialOrder[T], R any] struct {
	fabric    Fabric
	peer      int
	channelID uint64
	codec     Codec[T, R]
}

func (p *remotePusher[T, R]) Push(t T, records []R, final bool) {
	p.fabric.Send(p.peer, p.channelID, p.codec.Encode(t, records, final))
}

// allocate registers a fresh channel with the allocator and returns one
// Pusher per peer — this worker's own peer pushing directly into the
// Puller, every other peer routed through the Fabric — plus the Puller
// this worker's own share of the channel's traffic arrives on. Exchange
// and Broadcast both build their pact-specific fan-out Pusher on top of
// this.
func allocate[T order.PartialOrder[T], R any](a *Allocator, address []int, codec Codec[T, R]) ([]Pusher[T, R], *Puller[T, R]) {
	id := a.newChannelID()
	puller := &Puller[T, R]{codec: &codec}
	a.register(id, address, puller)

	peers := a.Peers()
	pushers := make([]Pusher[T, R], peers)
	for i := 0; i < peers; i++ {
		if i == a.Index() {
			pushers[i] = &localPusher[T, R]{puller: puller, activations: a.activations, address: address, source: a.Index()}
		} else {
			pushers[i] = &remotePusher[T, R]{fabric: a.fabric, peer: i, channelID: id, codec: codec}
		}
	}
	return pushers, puller
}
