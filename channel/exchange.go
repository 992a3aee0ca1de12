package channel

import (
	"math/bits"

	"github.com/TimelyDataflow/timely-dataflow-sub000/operator"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// exchangePusher implements spec.md §4.8's Exchange pact: each pushed
// record is routed to one of the allocator's peer destinations by
// hash(record) mod N, buffered per destination, and flushed when the
// open timestamp changes, the destination's buffer reaches capacity, or
// the batch closes. When N is a power of two the modulus is replaced by
// a bitmask — SPEC_FULL.md §11.4's named optimisation; it changes which
// instructions run, never which peer a given record lands on.
type exchangePusher[T order.PartialOrder[T], R any] struct {
	raw     []Pusher[T, R]
	hash    func(R) uint64
	peers   int
	mask    uint64
	useMask bool

	buffer   *PartitionedBatch[R]
	capacity int
	openTime T
	open     bool
}

func newExchangePusher[T order.PartialOrder[T], R any](raw []Pusher[T, R], hash func(R) uint64, capacity int) *exchangePusher[T, R] {
	peers := len(raw)
	return &exchangePusher[T, R]{
		raw:      raw,
		hash:     hash,
		peers:    peers,
		mask:     uint64(peers - 1),
		useMask:  bits.OnesCount(peers) == 1,
		buffer:   NewPartitionedBatch[R](peers),
		capacity: capacity,
	}
}

func (p *exchangePusher[T, R]) dest(r R) int {
	h := p.hash(r)
	if p.useMask {
		return int(h & p.mask)
	}
	return int(h % uint64(p.peers))
}

func (p *exchangePusher[T, R]) Push(t T, records []R, final bool) {
	if p.open && p.openTime != t {
		p.flushAll(false)
	}
	p.openTime = t
	p.open = true

	p.buffer.PushPartitioned(records, p.dest)
	for i := 0; i < p.peers; i++ {
		if len(p.buffer.Slot(i)) >= p.capacity {
			p.flushSlot(i, false)
		}
	}
	if final {
		p.flushAll(true)
	}
}

func (p *exchangePusher[T, R]) flushSlot(i int, final bool) {
	slot := p.buffer.Slot(i)
	if len(slot) == 0 && !final {
		return
	}
	p.raw[i].Push(p.openTime, slot, final)
	p.buffer.ClearSlot(i)
}

func (p *exchangePusher[T, R]) flushAll(final bool) {
	for i := 0; i < p.peers; i++ {
		p.flushSlot(i, final)
	}
}

// NewExchange allocates a fresh channel and returns a Pusher that
// spreads pushed records across every peer by hash, plus the Puller
// this worker's own share of exchanged records arrives on. capacity <= 0
// uses operator.DefaultBufferCapacity, matching OutputHandle's own
// default.
func NewExchange[T order.PartialOrder[T], R any](a *Allocator, address []int, codec Codec[T, R], hash func(R) uint64, capacity int) (Pusher[T, R], *Puller[T, R]) {
	if capacity <= 0 {
		capacity = operator.DefaultBufferCapacity
	}
	raw, puller := allocate(a, address, codec)
	return newExchangePusher(raw, hash, capacity), puller
}
