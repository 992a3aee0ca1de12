package dataflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/dataflow"
	"github.com/TimelyDataflow/timely-dataflow-sub000/operator"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
)

// sourceOp emits one capability at time 0 on its sole output, then
// releases it and reports complete on its second Schedule call.
type sourceOp struct {
	ticks  int
	drain  *changebatch.ChangeBatch[operator.PortDelta[order.Step]]
}

func newSourceOp() *sourceOp {
	return &sourceOp{drain: changebatch.New[operator.PortDelta[order.Step]]()}
}

func (s *sourceOp) Name() string   { return "source" }
func (s *sourceOp) Address() []int { return []int{0} }
func (s *sourceOp) Inputs() int    { return 0 }
func (s *sourceOp) Outputs() int   { return 1 }

func (s *sourceOp) GetInternalSummary() (operator.Connectivity[order.StepSummary], *changebatch.ChangeBatch[operator.OutputTime[order.Step]]) {
	caps := changebatch.New[operator.OutputTime[order.Step]]()
	caps.Update(operator.OutputTime[order.Step]{Port: 0, Time: 0}, 1)
	return operator.Connectivity[order.StepSummary]{}, caps
}

func (s *sourceOp) SetExternalSummary() {}

func (s *sourceOp) Schedule() bool {
	s.ticks++
	if s.ticks == 2 {
		s.drain.Update(operator.PortDelta[order.Step]{Output: true, Port: 0, Time: 0}, -1)
		return false
	}
	return true
}

func (s *sourceOp) Drain() *changebatch.ChangeBatch[operator.PortDelta[order.Step]] {
	return s.drain
}

func (s *sourceOp) NotifyMe() bool { return false }

func TestSubgraphTracksChildCapabilityThroughCompletion(t *testing.T) {
	g := dataflow.NewSubgraph[order.Step, order.StepSummary]("root", nil, 0, 1, order.Identity)
	src := newSourceOp()
	idx := g.AddChild(src)
	g.AddEdge(pointstamp.Source(idx, 0), g.OutputLocation(0))
	g.Finalize()

	assert.False(t, g.Tracker().Frontier(g.OutputLocation(0)).IsEmpty())

	incomplete := g.Schedule() // tick 1: still running
	assert.True(t, incomplete)

	incomplete = g.Schedule() // tick 2: completes and releases its capability
	assert.False(t, incomplete)
	assert.True(t, g.Tracker().Frontier(g.OutputLocation(0)).IsEmpty())
}

func TestSubgraphReportsOwnBoundaryConnectivity(t *testing.T) {
	g := dataflow.NewSubgraph[order.Step, order.StepSummary]("nested", nil, 1, 1, order.Identity)
	pass := &passThroughOp{}
	idx := g.AddChild(pass)
	g.AddEdge(g.InputLocation(0), pointstamp.Target(idx, 0))
	g.AddEdge(pointstamp.Source(idx, 0), g.OutputLocation(0))

	conn, initial := g.GetInternalSummary()
	require.NotNil(t, conn[0])
	require.NotNil(t, conn[0][0])
	assert.False(t, conn[0][0].IsEmpty())
	assert.True(t, initial.IsEmpty())
}

// passThroughOp has no internal summary restriction of its own (identity
// connectivity from its single input to its single output) and never
// completes on its own; used only to exercise Subgraph's boundary-port
// connectivity derivation.
type passThroughOp struct{}

func (p *passThroughOp) Name() string   { return "pass" }
func (p *passThroughOp) Address() []int { return []int{0} }
func (p *passThroughOp) Inputs() int    { return 1 }
func (p *passThroughOp) Outputs() int   { return 1 }

func (p *passThroughOp) GetInternalSummary() (operator.Connectivity[order.StepSummary], *changebatch.ChangeBatch[operator.OutputTime[order.Step]]) {
	a := antichain.New[order.StepSummary]()
	a.Insert(order.Identity)
	return operator.Connectivity[order.StepSummary]{0: {0: a}}, changebatch.New[operator.OutputTime[order.Step]]()
}

func (p *passThroughOp) SetExternalSummary()                                            {}
func (p *passThroughOp) Schedule() bool                                                 { return true }
func (p *passThroughOp) Drain() *changebatch.ChangeBatch[operator.PortDelta[order.Step]] { return changebatch.New[operator.PortDelta[order.Step]]() }
func (p *passThroughOp) NotifyMe() bool                                                  { return false }

type nestedTime = order.Product[order.Step, order.Step]
type nestedSummary = order.ProductSummary[order.Step, order.Step, order.StepSummary, order.StepSummary]

// innerAdvanceOp is passThroughOp's nested-scope counterpart: its internal
// summary advances only the inner component of a Product timestamp,
// exactly the connectivity a child confined to one outer iteration
// reports, per spec.md §4.2.
type innerAdvanceOp struct{}

func (o *innerAdvanceOp) Name() string   { return "inner-advance" }
func (o *innerAdvanceOp) Address() []int { return []int{0} }
func (o *innerAdvanceOp) Inputs() int    { return 1 }
func (o *innerAdvanceOp) Outputs() int   { return 1 }

func (o *innerAdvanceOp) GetInternalSummary() (operator.Connectivity[nestedSummary], *changebatch.ChangeBatch[operator.OutputTime[nestedTime]]) {
	a := antichain.New[nestedSummary]()
	a.Insert(nestedSummary{Outer: order.Identity, Inner: order.StepSummary{Delta: 1}})
	return operator.Connectivity[nestedSummary]{0: {0: a}}, changebatch.New[operator.OutputTime[nestedTime]]()
}

func (o *innerAdvanceOp) SetExternalSummary() {}
func (o *innerAdvanceOp) Schedule() bool      { return true }
func (o *innerAdvanceOp) Drain() *changebatch.ChangeBatch[operator.PortDelta[nestedTime]] {
	return changebatch.New[operator.PortDelta[nestedTime]]()
}
func (o *innerAdvanceOp) NotifyMe() bool { return false }

// A Subgraph's own boundary connectivity must carry the Product/
// ProductSummary pair exactly as it does order.Step/order.StepSummary:
// this proves the nested-scope types are actually usable as T, S here,
// not just inside order's own unit tests.
func TestSubgraphReportsBoundaryConnectivityForNestedProduct(t *testing.T) {
	g := dataflow.NewSubgraph[nestedTime, nestedSummary]("nested-product", nil, 1, 1,
		nestedSummary{Outer: order.Identity, Inner: order.Identity})
	child := &innerAdvanceOp{}
	idx := g.AddChild(child)
	g.AddEdge(g.InputLocation(0), pointstamp.Target(idx, 0))
	g.AddEdge(pointstamp.Source(idx, 0), g.OutputLocation(0))

	conn, initial := g.GetInternalSummary()
	require.NotNil(t, conn[0])
	require.NotNil(t, conn[0][0])
	assert.False(t, conn[0][0].IsEmpty())
	assert.True(t, initial.IsEmpty())

	changes := g.UpdateInputFrontier(0, order.ToInner[order.Step, order.Step](3, order.Minimum), 1)
	require.NotEmpty(t, changes)
	assert.True(t, g.Tracker().Frontier(g.OutputLocation(0)).LessEqual(
		order.Product[order.Step, order.Step]{Outer: 3, Inner: 1}))
}
