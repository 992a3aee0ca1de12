// Package channel implements spec.md §4.8's channel allocator and the
// three pacts (Pipeline, Exchange, Broadcast) operators use to move
// records between themselves, whether those operators share a worker or
// sit on opposite sides of a cross-process connection.
//
// Grounded on stack/arch/types.go's Peer interface (Channel() for a
// worker-local connection vs. Stream() for a remote one) and
// tlc/peering/layer.go's per-peer dispatch between the two, generalized
// from "one TLC protocol channel" to "any number of typed dataflow
// channels, each independently allocated."
package channel

import (
	"sync"

	"github.com/TimelyDataflow/timely-dataflow-sub000/scheduler"
)

// Fabric is the byte-level cross-worker send primitive a channel
// depends on but does not implement; package transport's Cluster is the
// production implementation, sending through one Endpoint per remote
// peer over real TCP connections with the wire framing of spec.md §4.9. Pipeline pacts never touch a Fabric; Exchange
// and Broadcast route every non-local destination's payload through one.
type Fabric interface {
	Index() int
	Peers() int
	Send(peer int, channelID uint64, payload []byte)
}

// inboundSink is satisfied by every Puller: it lets Allocator.Deliver
// route an arrived frame's payload to the channel it names without
// needing to know that channel's record type.
type inboundSink interface {
	deliver(source int, payload []byte)
}

// Allocator is spec.md §4.8's channel allocator: it hands out channel
// identifiers, remembers which operator address owns each one so the
// scheduler's receive phase can translate an arriving frame into an
// activation (spec.md §4.6 step 1), and dispatches inbound bytes handed
// to it by transport's recv loop to the right Puller.
type Allocator struct {
	fabric      Fabric
	activations *scheduler.Activations

	mu        sync.Mutex
	nextID    uint64
	addresses map[uint64][]int
	sinks     map[uint64]inboundSink
}

// NewAllocator returns an Allocator for a worker whose cross-worker
// sends go through fabric and whose channel events activate addresses on
// activations.
func NewAllocator(fabric Fabric, activations *scheduler.Activations) *Allocator {
	return &Allocator{
		fabric:      fabric,
		activations: activations,
		addresses:   make(map[uint64][]int),
		sinks:       make(map[uint64]inboundSink),
	}
}

// Index and Peers report this worker's position in, and the size of,
// the cluster the Allocator's Fabric connects.
func (a *Allocator) Index() int { return a.fabric.Index() }
func (a *Allocator) Peers() int { return a.fabric.Peers() }

func (a *Allocator) newChannelID() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	return id
}

func (a *Allocator) register(id uint64, address []int, sink inboundSink) {
	a.mu.Lock()
	a.addresses[id] = address
	a.sinks[id] = sink
	a.mu.Unlock()
}

// AddressFor returns the operator address registered for channelID, for
// a receive phase that wants to activate it directly without decoding
// the frame through Deliver.
func (a *Allocator) AddressFor(channelID uint64) ([]int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	addr, ok := a.addresses[channelID]
	return addr, ok
}

// Deliver hands an inbound frame's payload to the channel it names:
// decode it onto that channel's Puller, then activate the owning
// operator's address. Called by package transport's recv loop.
func (a *Allocator) Deliver(channelID uint64, source int, payload []byte) {
	a.mu.Lock()
	sink := a.sinks[channelID]
	addr := a.addresses[channelID]
	a.mu.Unlock()
	if sink == nil {
		return
	}
	sink.deliver(source, payload)
	a.activations.Activate(addr)
}
