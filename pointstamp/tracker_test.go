package pointstamp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
)

// A two-node linear pipeline: node 0 output 0 -> node 1 input 0, node 1
// input 0 -> output 0 with the identity internal summary. A capability
// held at node 0's output must imply a frontier at node 1's input, and
// (through node 1's internal summary) at node 1's output too.
func TestLinearPipelinePropagatesFrontier(t *testing.T) {
	tr := pointstamp.NewTracker[order.Step, order.StepSummary](order.Identity)
	tr.AddEdgeSummary(pointstamp.Source(0, 0), pointstamp.Target(1, 0), order.Identity)
	tr.AddInternalSummary(1, 0, 0, order.Identity)
	tr.Recompute()

	changes := tr.UpdatePointstamp(pointstamp.Source(0, 0), 5, 1)
	require.NotEmpty(t, changes)

	assert.True(t, tr.Frontier(pointstamp.Source(0, 0)).LessEqual(5))
	assert.True(t, tr.Frontier(pointstamp.Target(1, 0)).LessEqual(5))
	assert.True(t, tr.Frontier(pointstamp.Source(1, 0)).LessEqual(5))
}

// Releasing the only capability at a location must retire its own
// frontier and every downstream frontier it fed, per spec.md §4.3.
func TestReleaseRetiresDownstreamFrontier(t *testing.T) {
	tr := pointstamp.NewTracker[order.Step, order.StepSummary](order.Identity)
	tr.AddEdgeSummary(pointstamp.Source(0, 0), pointstamp.Target(1, 0), order.Identity)
	tr.Recompute()

	tr.UpdatePointstamp(pointstamp.Source(0, 0), 5, 1)
	tr.UpdatePointstamp(pointstamp.Source(0, 0), 5, -1)

	assert.True(t, tr.Frontier(pointstamp.Target(1, 0)).IsEmpty())
	assert.True(t, tr.Frontier(pointstamp.Source(0, 0)).IsEmpty())
}

// A feedback edge with a bounded +1 summary must drop pointstamps whose
// image would cross the bound, per spec.md §4.2 and §8 scenario 3.
func TestBoundedFeedbackDropsOverflowingPointstamps(t *testing.T) {
	tr := pointstamp.NewTracker[order.Step, order.StepSummary](order.Identity)
	loop := order.StepSummary{Delta: 1, Bound: 100}
	tr.AddEdgeSummary(pointstamp.Source(0, 0), pointstamp.Target(0, 0), loop)
	tr.Recompute()

	changes := tr.UpdatePointstamp(pointstamp.Source(0, 0), 99, 1)
	require.NotEmpty(t, changes)
	assert.True(t, tr.Frontier(pointstamp.Target(0, 0)).LessEqual(100))

	// A pointstamp already at the bound produces no image at all: the
	// target frontier must not move because of it.
	before := tr.Frontier(pointstamp.Target(0, 0)).Elements()
	tr.UpdatePointstamp(pointstamp.Source(0, 0), 100, 1)
	after := tr.Frontier(pointstamp.Target(0, 0)).Elements()
	assert.Equal(t, before, after)
}

// Invariant (1) of spec.md §8: the raw pointstamp count at a location
// exactly matches the live capabilities/messages accounted there.
func TestPointstampCountConservation(t *testing.T) {
	tr := pointstamp.NewTracker[order.Step, order.StepSummary](order.Identity)
	loc := pointstamp.Source(0, 0)
	tr.UpdatePointstamp(loc, 3, 1)
	tr.UpdatePointstamp(loc, 3, 1)
	assert.Equal(t, int64(2), tr.PointstampCount(loc, 3))
	tr.UpdatePointstamp(loc, 3, -1)
	assert.Equal(t, int64(1), tr.PointstampCount(loc, 3))
}

// Nested-scope reachability per spec.md §4.2: a Product timestamp (outer,
// inner) and its ProductSummary compose cleanly as T, S for Tracker
// exactly like any flat scope's order.Step/order.StepSummary pair do.
// Here node 0 holds a capability at outer time 7 of the surrounding loop,
// refined to the nested scope's minimum inner time, and node 1's internal
// summary advances only the inner component by one step (the outer
// component staying fixed, as a child confined to one outer iteration
// must).
func TestNestedProductTimestampPropagatesFrontier(t *testing.T) {
	type T = order.Product[order.Step, order.Step]
	type S = order.ProductSummary[order.Step, order.Step, order.StepSummary, order.StepSummary]

	identity := S{Outer: order.Identity, Inner: order.Identity}
	innerStep := S{Outer: order.Identity, Inner: order.StepSummary{Delta: 1}}

	tr := pointstamp.NewTracker[T, S](identity)
	tr.AddEdgeSummary(pointstamp.Source(0, 0), pointstamp.Target(1, 0), identity)
	tr.AddInternalSummary(1, 0, 0, innerStep)
	tr.Recompute()

	start := order.ToInner[order.Step, order.Step](7, order.Minimum)
	changes := tr.UpdatePointstamp(pointstamp.Source(0, 0), start, 1)
	require.NotEmpty(t, changes)

	want := order.Product[order.Step, order.Step]{Outer: 7, Inner: 1}
	assert.True(t, tr.Frontier(pointstamp.Source(0, 0)).LessEqual(start))
	assert.True(t, tr.Frontier(pointstamp.Target(1, 0)).LessEqual(start))
	assert.True(t, tr.Frontier(pointstamp.Source(1, 0)).LessEqual(want))
	assert.False(t, tr.Frontier(pointstamp.Source(1, 0)).LessEqual(start),
		"the inner step must actually advance the nested frontier past the unrefined start time")

	tr.UpdatePointstamp(pointstamp.Source(0, 0), start, -1)
	assert.True(t, tr.Frontier(pointstamp.Source(1, 0)).IsEmpty())
}

func TestIdleReflectsAllLocations(t *testing.T) {
	tr := pointstamp.NewTracker[order.Step, order.StepSummary](order.Identity)
	assert.True(t, tr.Idle())
	tr.UpdatePointstamp(pointstamp.Source(0, 0), 1, 1)
	assert.False(t, tr.Idle())
	tr.UpdatePointstamp(pointstamp.Source(0, 0), 1, -1)
	assert.True(t, tr.Idle())
}
