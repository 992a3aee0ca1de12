package transport_test

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
	"github.com/TimelyDataflow/timely-dataflow-sub000/scheduler"
	"github.com/TimelyDataflow/timely-dataflow-sub000/transport"
)

// fakeFabric wires N allocators together in-process, exactly as
// package channel's own tests do, standing in for a real Cluster.
type fakeFabric struct {
	index   int
	cluster *[]*channel.Allocator
}

func (f *fakeFabric) Index() int { return f.index }
func (f *fakeFabric) Peers() int { return len(*f.cluster) }
func (f *fakeFabric) Send(peer int, channelID uint64, payload []byte) {
	(*f.cluster)[peer].Deliver(channelID, f.index, payload)
}

func newCluster(n int) []*channel.Allocator {
	allocators := make([]*channel.Allocator, n)
	for i := range allocators {
		allocators[i] = channel.NewAllocator(&fakeFabric{index: i, cluster: &allocators}, scheduler.NewActivations())
	}
	return allocators
}

type wireBatch struct {
	Seq     int64
	Entries []transport.ProgressEntry[order.Step]
}

func progressCodec() channel.Codec[order.Step, transport.ProgressEntry[order.Step]] {
	return channel.Codec[order.Step, transport.ProgressEntry[order.Step]]{
		Encode: func(t order.Step, records []transport.ProgressEntry[order.Step], final bool) []byte {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(wireBatch{int64(t), records}); err != nil {
				panic(err)
			}
			return buf.Bytes()
		},
		Decode: func(payload []byte) (order.Step, []transport.ProgressEntry[order.Step], bool) {
			var w wireBatch
			if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&w); err != nil {
				panic(err)
			}
			return order.Step(w.Seq), w.Entries, false
		},
	}
}

func TestSenderBroadcastsCompactedBatchToEveryPeer(t *testing.T) {
	allocators := newCluster(3)
	codec := progressCodec()
	senders := make([]*transport.Sender[order.Step], 3)
	for i, a := range allocators {
		senders[i] = transport.NewSender[order.Step](a, []int{0}, codec, transport.Eager)
	}

	loc := pointstamp.Source(0, 0)
	cb := changebatch.New[transport.ProgressKey[order.Step]]()
	cb.Update(transport.ProgressKey[order.Step]{Location: loc, Time: order.Step(3)}, 2)
	cb.Update(transport.ProgressKey[order.Step]{Location: loc, Time: order.Step(3)}, -1) // compacts to +1
	senders[0].Send(cb)

	for i := 1; i < 3; i++ {
		got := changebatch.New[transport.ProgressKey[order.Step]]()
		senders[i].Recv(got)
		drained := got.Drain()
		require.Len(t, drained, 1, "peer %d", i)
		assert.Equal(t, loc, drained[0].Key.Location)
		assert.Equal(t, order.Step(3), drained[0].Key.Time)
		assert.Equal(t, int64(1), drained[0].Delta)
	}
}

func TestSenderSendOfEmptyBatchIsNoop(t *testing.T) {
	allocators := newCluster(2)
	codec := progressCodec()
	senders := make([]*transport.Sender[order.Step], 2)
	for i, a := range allocators {
		senders[i] = transport.NewSender[order.Step](a, []int{0}, codec, transport.Eager)
	}

	cb := changebatch.New[transport.ProgressKey[order.Step]]()
	senders[0].Send(cb)

	got := changebatch.New[transport.ProgressKey[order.Step]]()
	senders[1].Recv(got)
	assert.True(t, got.IsEmpty())
}

func TestWithheldInDemandModeDropsCoveredEntries(t *testing.T) {
	loc := pointstamp.Source(0, 0)
	cb := changebatch.New[transport.ProgressKey[order.Step]]()
	covered := transport.ProgressKey[order.Step]{Location: loc, Time: order.Step(1)}
	uncovered := transport.ProgressKey[order.Step]{Location: loc, Time: order.Step(2)}
	cb.Update(covered, -1)
	cb.Update(uncovered, 1)

	filtered := transport.WithheldInDemandMode(transport.Demand, cb, func(k transport.ProgressKey[order.Step]) bool {
		return k == covered
	})
	drained := filtered.Drain()
	require.Len(t, drained, 1)
	assert.Equal(t, uncovered, drained[0].Key)
}

func TestWithheldInDemandModeIsNoopInEagerMode(t *testing.T) {
	loc := pointstamp.Source(0, 0)
	cb := changebatch.New[transport.ProgressKey[order.Step]]()
	cb.Update(transport.ProgressKey[order.Step]{Location: loc, Time: order.Step(1)}, 1)

	out := transport.WithheldInDemandMode(transport.Eager, cb, func(transport.ProgressKey[order.Step]) bool { return true })
	assert.Equal(t, cb, out)
}

func TestProgressLogObsoleteGarbageCollectsPastFrontier(t *testing.T) {
	log := transport.NewProgressLog[order.Step]()
	loc := pointstamp.Source(0, 0)
	log.Record([]transport.ProgressEntry[order.Step]{{Location: loc, Time: order.Step(1), Delta: 1}})
	log.Record([]transport.ProgressEntry[order.Step]{{Location: loc, Time: order.Step(5), Delta: 1}})

	frontier := antichain.New[order.Step]()
	frontier.Insert(order.Step(5))
	log.Obsolete(frontier)

	remaining := log.Since(frontier)
	var times []order.Step
	for _, e := range remaining {
		times = append(times, e.Time)
	}
	assert.ElementsMatch(t, []order.Step{5}, times)
}
