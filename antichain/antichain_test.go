package antichain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

func TestInsertDiscardsDominatedElement(t *testing.T) {
	a := antichain.New[order.Step]()
	a.Insert(5)
	a.Insert(7) // 5 <= 7, so 7 is discarded
	assert.ElementsMatch(t, []order.Step{5}, a.Elements())
}

func TestInsertRemovesDominatedElements(t *testing.T) {
	a := antichain.New[order.Step]()
	a.Insert(7)
	a.Insert(5) // 5 <= 7, so 7 is removed and 5 is added
	assert.ElementsMatch(t, []order.Step{5}, a.Elements())
}

func TestInsertExistingIsNoOp(t *testing.T) {
	a := antichain.New[order.Step]()
	a.Insert(5)
	before := append([]order.Step{}, a.Elements()...)
	a.Insert(5)
	assert.Equal(t, before, a.Elements())
}

func TestLessEqualAndLessThan(t *testing.T) {
	a := antichain.New[order.Step]()
	a.Insert(5)
	assert.True(t, a.LessEqual(5))
	assert.True(t, a.LessEqual(6))
	assert.False(t, a.LessEqual(4))
	assert.True(t, a.LessThan(6))
	assert.False(t, a.LessThan(5))
}

func TestMutableAntichainMonotonicAccounting(t *testing.T) {
	m := antichain.NewMutable[order.Step]()

	deltas := m.Update(5, 1)
	require.Len(t, deltas, 1)
	assert.Equal(t, order.Step(5), deltas[0].Key)
	assert.Equal(t, int64(1), deltas[0].Delta)

	// A second, later contribution at 7 does not change the minimal set
	// while 5 is still live.
	deltas = m.Update(7, 1)
	assert.Empty(t, deltas)

	// Dropping the only contribution at 5 exposes 7 as the new minimum.
	deltas = m.Update(5, -1)
	require.Len(t, deltas, 2)
	byDelta := map[order.Step]int64{}
	for _, d := range deltas {
		byDelta[d.Key] = d.Delta
	}
	assert.Equal(t, int64(-1), byDelta[5])
	assert.Equal(t, int64(1), byDelta[7])
}

func TestMutableAntichainUpdateBatch(t *testing.T) {
	m := antichain.NewMutable[order.Step]()
	var b changebatch.ChangeBatch[order.Step]
	b.Update(3, 2)
	b.Update(4, 1)
	deltas := m.UpdateBatch(&b)
	require.Len(t, deltas, 1)
	assert.Equal(t, order.Step(3), deltas[0].Key)
	assert.Equal(t, int64(1), deltas[0].Delta)
}

func TestMutableAntichainIdempotentRebuild(t *testing.T) {
	m := antichain.NewMutable[order.Step]()
	m.Update(10, 1)
	m.Update(5, 1)
	m.Update(10, -1)

	// Build a second mutable antichain from scratch over the same final
	// multiset (5: +1) and confirm the minimal sets agree.
	fresh := antichain.NewMutable[order.Step]()
	fresh.Update(5, 1)

	assert.True(t, m.Frontier().Equal(fresh.Frontier()))
}

func TestReplayReconstructsFrontier(t *testing.T) {
	m := antichain.NewMutable[order.Step]()
	var all []changebatch.Delta[order.Step]
	all = append(all, m.Update(5, 1)...)
	all = append(all, m.Update(7, 1)...)
	all = append(all, m.Update(5, -1)...)

	replayed := antichain.Replay[order.Step](all)
	assert.True(t, replayed.Equal(m.Frontier()))
}
