package channel_test

import (
	"bytes"
	"encoding/gob"
	"hash/maphash"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/scheduler"
)

// fakeFabric wires N allocators together in-process, looping Send
// straight into the target Allocator's Deliver rather than going out to
// a real socket — standing in for package transport in these tests.
type fakeFabric struct {
	index   int
	cluster *[]*channel.Allocator
}

func (f *fakeFabric) Index() int { return f.index }
func (f *fakeFabric) Peers() int { return len(*f.cluster) }
func (f *fakeFabric) Send(peer int, channelID uint64, payload []byte) {
	(*f.cluster)[peer].Deliver(channelID, f.index, payload)
}

func newCluster(t *testing.T, n int) ([]*channel.Allocator, []*scheduler.Activations) {
	t.Helper()
	allocators := make([]*channel.Allocator, n)
	activations := make([]*scheduler.Activations, n)
	for i := range allocators {
		activations[i] = scheduler.NewActivations()
		allocators[i] = channel.NewAllocator(&fakeFabric{index: i, cluster: &allocators}, activations[i])
	}
	return allocators, activations
}

// intCodec round-trips (Step, []int, final) through gob, matching the
// teacher's own reach for gob encoding in tlc/minnet/node.go.
func intCodec() channel.Codec[order.Step, int] {
	type wire struct {
		Time    int64
		Records []int
		Final   bool
	}
	return channel.Codec[order.Step, int]{
		Encode: func(t order.Step, records []int, final bool) []byte {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(wire{int64(t), records, final}); err != nil {
				panic(err)
			}
			return buf.Bytes()
		},
		Decode: func(payload []byte) (order.Step, []int, bool) {
			var w wire
			if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&w); err != nil {
				panic(err)
			}
			return order.Step(w.Time), w.Records, w.Final
		},
	}
}

func hashInt() func(int) uint64 {
	seed := maphash.MakeSeed()
	return func(v int) uint64 {
		var h maphash.Hash
		h.SetSeed(seed)
		var b [8]byte
		for i := range b {
			b[i] = byte(v >> (8 * i))
		}
		h.Write(b[:])
		return h.Sum64()
	}
}

func drainAll[T order.PartialOrder[T], R any](p *channel.Puller[T, R]) []channel.Message[T, R] {
	var out []channel.Message[T, R]
	for {
		m, ok := p.Pull()
		if !ok {
			return out
		}
		out = append(out, m)
	}
}

func TestPipelineDeliversInArrivalOrder(t *testing.T) {
	acts := scheduler.NewActivations()
	pusher, puller := channel.NewPipeline[order.Step, int](acts, []int{0, 1})

	pusher.Push(order.Step(0), []int{1, 2}, false)
	pusher.Push(order.Step(1), []int{3}, false)
	pusher.Push(order.Step(1), nil, true)

	msgs := drainAll[order.Step, int](puller)
	require.Len(t, msgs, 3)
	assert.Equal(t, []int{1, 2}, []int(msgs[0].Records))
	assert.Equal(t, []int{3}, []int(msgs[1].Records))
	assert.True(t, msgs[2].Final)
	assert.Equal(t, 1, acts.Len())
}

func TestExchangeRoutesByHashModPeers(t *testing.T) {
	allocators, _ := newCluster(t, 3)
	address := []int{0}
	codec := intCodec()
	hash := hashInt()

	pushers := make([]channel.Pusher[order.Step, int], 3)
	pullers := make([]*channel.Puller[order.Step, int], 3)
	for i := range allocators {
		pushers[i], pullers[i] = channel.NewExchange[order.Step, int](allocators[i], address, codec, hash, 1)
	}

	for v := 0; v < 9; v++ {
		pushers[0].Push(order.Step(0), []int{v}, false)
	}

	seen := map[int][]int{}
	for i, p := range pullers {
		for _, m := range drainAll[order.Step, int](p) {
			seen[i] = append(seen[i], []int(m.Records)...)
		}
	}
	total := 0
	for i := range pullers {
		total += len(seen[i])
		for _, v := range seen[i] {
			assert.Equal(t, i, int(hash(v)%3), "record %d landed on the wrong peer", v)
		}
	}
	assert.Equal(t, 9, total)
}

func TestExchangeUsesBitmaskRoutingForPowerOfTwoPeers(t *testing.T) {
	allocators, _ := newCluster(t, 4)
	address := []int{0}
	codec := intCodec()
	hash := hashInt()

	pushers := make([]channel.Pusher[order.Step, int], 4)
	pullers := make([]*channel.Puller[order.Step, int], 4)
	for i := range allocators {
		pushers[i], pullers[i] = channel.NewExchange[order.Step, int](allocators[i], address, codec, hash, 1)
	}

	for v := 0; v < 16; v++ {
		pushers[0].Push(order.Step(0), []int{v}, false)
	}

	for i, p := range pullers {
		for _, m := range drainAll[order.Step, int](p) {
			for _, v := range m.Records {
				assert.Equal(t, i, int(hash(v)&3), "record %d landed on the wrong peer under bitmask routing", v)
			}
		}
	}
}

func TestBroadcastSendsSameRecordsToEveryPeer(t *testing.T) {
	allocators, _ := newCluster(t, 3)
	address := []int{0}
	codec := intCodec()

	pushers := make([]channel.Pusher[order.Step, int], 3)
	pullers := make([]*channel.Puller[order.Step, int], 3)
	for i := range allocators {
		pushers[i], pullers[i] = channel.NewBroadcast[order.Step, int](allocators[i], address, codec)
	}

	pushers[0].Push(order.Step(0), []int{7, 8, 9}, false)

	for i, p := range pullers {
		msgs := drainAll[order.Step, int](p)
		require.Len(t, msgs, 1, "peer %d", i)
		assert.Equal(t, []int{7, 8, 9}, []int(msgs[0].Records))
	}
}

func TestAllocatorDeliverActivatesOwningAddress(t *testing.T) {
	allocators, acts := newCluster(t, 2)
	address := []int{3, 1}
	codec := intCodec()

	pushers, _ := makeBroadcastPair(t, allocators, address, codec)
	pushers[0].Push(order.Step(0), []int{42}, false)

	assert.Equal(t, 1, acts[1].Len())
	assert.Equal(t, [][]int{address}, acts[1].Drain())
}

func makeBroadcastPair(t *testing.T, allocators []*channel.Allocator, address []int, codec channel.Codec[order.Step, int]) ([]channel.Pusher[order.Step, int], []*channel.Puller[order.Step, int]) {
	t.Helper()
	pushers := make([]channel.Pusher[order.Step, int], len(allocators))
	pullers := make([]*channel.Puller[order.Step, int], len(allocators))
	for i := range allocators {
		pushers[i], pullers[i] = channel.NewBroadcast[order.Step, int](allocators[i], address, codec)
	}
	return pushers, pullers
}
