package worker

import (
	"sync"

	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/dataflow"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// DropDelta is one entry of the cluster-wide (DataflowId, ±1) stream
// spec.md §4.6 describes: "a dedicated internal broadcast channel
// carries per-worker (DataflowId, ±1) change-batches that track,
// globally, which dataflows any peer might still reference."
type DropDelta struct {
	ID    dataflow.DataflowId
	Delta int64
}

// DropBroadcaster is that dedicated channel: every worker's own Drop
// call both retires the dataflow locally and broadcasts its -1 vote,
// and PollPeerDrops folds every peer's own vote into this worker's
// Registry, returning the ids that became fully released as a result.
type DropBroadcaster struct {
	mu       sync.Mutex
	seq      order.Step
	pusher   channel.Pusher[order.Step, DropDelta]
	puller   *channel.Puller[order.Step, DropDelta]
	registry *dataflow.Registry
	worker   int
	logger   logging.Logger
}

// NewDropBroadcaster builds the broadcast pact the worker's teardown
// protocol rides on. address is this channel's operator address within
// the worker's own channel allocator namespace, distinct from any data
// or progress channel's address.
func NewDropBroadcaster(a *channel.Allocator, address []int, codec channel.Codec[order.Step, DropDelta], registry *dataflow.Registry, worker int, logger logging.Logger) *DropBroadcaster {
	pusher, puller := channel.NewBroadcast[order.Step, DropDelta](a, address, codec)
	return &DropBroadcaster{pusher: pusher, puller: puller, registry: registry, worker: worker, logger: logger}
}

// Drop retires id on this worker and broadcasts this worker's own -1
// vote to every peer, per spec.md §4.6: "drop_dataflow(id) removes the
// dataflow from the active map but retains it in a frozen map until a
// cluster-wide scheduling frontier advances past it."
func (d *DropBroadcaster) Drop(id dataflow.DataflowId) {
	d.registry.Drop(id)
	d.mu.Lock()
	seq := d.seq
	d.seq++
	d.mu.Unlock()
	d.pusher.Push(seq, []DropDelta{{ID: id, Delta: -1}}, false)
	d.logger.Log(logging.Event{Kind: logging.MessageSent, Worker: d.worker, Fields: map[string]any{"dataflow": id.String(), "drop": true}})
}

// PollPeerDrops drains every inbound peer drop vote received since the
// last call, applies each to the local Registry, and returns the ids
// that were released as a result: "a frozen dataflow's resources are
// released only after no peer could still schedule it."
//
// The broadcast pact loops every Push back to its own sender (spec.md
// §4.5: "including itself or not, depending on the allocator; the
// algorithm is insensitive" — true for the compacting progress
// broadcaster, but this vote-once-per-peer protocol is not compacting),
// so this worker's own vote, already applied directly inside Drop, is
// skipped here by Source to avoid counting it twice.
func (d *DropBroadcaster) PollPeerDrops() []dataflow.DataflowId {
	var released []dataflow.DataflowId
	for {
		msg, ok := d.puller.Pull()
		if !ok {
			break
		}
		if msg.Source == d.worker {
			continue
		}
		for _, rec := range msg.Records {
			if d.registry.ApplyPeerDrop(rec.ID) {
				released = append(released, rec.ID)
			}
		}
	}
	return released
}
