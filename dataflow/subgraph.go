package dataflow

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/operator"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
)

// boundaryNode is the reserved node index a Subgraph registers its own
// input/output ports under in its own reachability tracker, so that the
// transitive closure naturally includes paths from the scope's own
// inputs through to its own outputs — the connectivity it must itself
// report to its parent scope via GetInternalSummary.
const boundaryNode = -1

// Subgraph is spec.md §3's recursive operator container: it owns
// children, the edges between them, and a pointstamp.Tracker that derives
// every child's (and the scope's own) implied input frontier. A Subgraph
// is itself an operator.Operator, so scopes nest to arbitrary depth.
type Subgraph[T order.PartialOrder[T], S order.PathSummary[T, S]] struct {
	name    string
	address []int
	inputs  int
	outputs int

	identity  S
	children  []operator.Operator[T, S]
	done      []bool
	edges     []Edge
	tracker   *pointstamp.Tracker[T, S]
	finalized bool

	// pendingInitial holds each child's initial-capability deltas until
	// Finalize runs: applying them before the path-summary matrix exists
	// would propagate frontiers against an empty matrix and never be
	// retroactively corrected, since Tracker.UpdatePointstamp propagates
	// using whatever matrix is current at the moment it is called.
	pendingInitial []pendingCap[T]
}

type pendingCap[T any] struct {
	loc   pointstamp.Location
	time  T
	delta int64
}

// NewSubgraph returns an empty subgraph with the given name, address
// (path of indices from the dataflow root), and port counts. identity
// must be the zero-effect Summary for S, exactly as pointstamp.NewTracker
// requires.
func NewSubgraph[T order.PartialOrder[T], S order.PathSummary[T, S]](name string, address []int, inputs, outputs int, identity S) *Subgraph[T, S] {
	return &Subgraph[T, S]{
		name:    name,
		address: address,
		inputs:  inputs,
		outputs: outputs,
		identity: identity,
		tracker: pointstamp.NewTracker[T, S](identity),
	}
}

// InputLocation returns the Location this subgraph's own input port is
// registered at in its own tracker: a source feeding into its children.
func (g *Subgraph[T, S]) InputLocation(port int) pointstamp.Location {
	return pointstamp.Source(boundaryNode, port)
}

// OutputLocation returns the Location this subgraph's own output port is
// registered at in its own tracker: a target collecting from children.
func (g *Subgraph[T, S]) OutputLocation(port int) pointstamp.Location {
	return pointstamp.Target(boundaryNode, port)
}

// AddChild registers op as a child operator, assigning it the next node
// index, folding its declared connectivity into the tracker's internal
// summaries, and queuing its initial capabilities (the change-batch
// GetInternalSummary returned) for Finalize to charge to the tracker.
// Children must be added
// before AddEdge calls that reference them and before Finalize.
func (g *Subgraph[T, S]) AddChild(op operator.Operator[T, S]) int {
	idx := len(g.children)
	g.children = append(g.children, op)
	g.done = append(g.done, false)

	connectivity, initialCaps := op.GetInternalSummary()
	for in, outs := range connectivity {
		for out, summaries := range outs {
			for _, s := range summaries.Elements() {
				g.tracker.AddInternalSummary(idx, in, out, s)
			}
		}
	}
	for _, d := range initialCaps.Drain() {
		g.pendingInitial = append(g.pendingInitial, pendingCap[T]{
			loc:   pointstamp.Source(idx, d.Key.Port),
			time:  d.Key.Time,
			delta: d.Delta,
		})
	}
	return idx
}

// AddEdge installs a fixed edge from source to target, carrying the
// scope's identity summary (edges never alter timestamps except a
// feedback edge, which a caller installs by constructing the edge's two
// endpoints through an intermediate child operator whose own internal
// summary does the advancing — matching spec.md §4.3's "identity
// summaries on every edge", with the one summary bump always attributed
// to an operator, never the bare edge).
func (g *Subgraph[T, S]) AddEdge(source, target pointstamp.Location) {
	g.edges = append(g.edges, Edge{Source: source, Target: target})
	g.tracker.AddEdgeSummary(source, target, g.identity)
}

// Finalize closes the tracker's path-summary matrix over the topology
// installed so far. Edges are fixed at construction per spec.md §4.4, so
// Finalize need only run once; GetInternalSummary calls it lazily if a
// parent asks before an explicit call.
func (g *Subgraph[T, S]) Finalize() {
	g.tracker.Recompute()
	g.finalized = true
	for _, c := range g.pendingInitial {
		g.tracker.UpdatePointstamp(c.loc, c.time, c.delta)
	}
	g.pendingInitial = nil
}

// UpdateInputFrontier applies an external capability/message count change
// at one of this subgraph's own input ports — called by the parent scope
// folding its own tracker's propagated changes down into this child,
// corresponding to spec.md §4.4's set_external_summary notification.
func (g *Subgraph[T, S]) UpdateInputFrontier(port int, t T, delta int64) []pointstamp.FrontierChange[T] {
	return g.tracker.UpdatePointstamp(g.InputLocation(port), t, delta)
}

// Tracker exposes the subgraph's own reachability tracker, e.g. for a
// worker to inspect a child's frontier directly for logging or tests.
func (g *Subgraph[T, S]) Tracker() *pointstamp.Tracker[T, S] {
	return g.tracker
}

// Name, Address, Inputs, Outputs, GetInternalSummary, SetExternalSummary,
// Schedule, and NotifyMe implement operator.Operator[T, S], letting a
// Subgraph be nested as a child of another Subgraph.

func (g *Subgraph[T, S]) Name() string   { return g.name }
func (g *Subgraph[T, S]) Address() []int { return g.address }
func (g *Subgraph[T, S]) Inputs() int    { return g.inputs }
func (g *Subgraph[T, S]) Outputs() int   { return g.outputs }

func (g *Subgraph[T, S]) GetInternalSummary() (operator.Connectivity[S], *changebatch.ChangeBatch[operator.OutputTime[T]]) {
	if !g.finalized {
		g.Finalize()
	}
	conn := make(operator.Connectivity[S])
	for in := 0; in < g.inputs; in++ {
		for out := 0; out < g.outputs; out++ {
			reach := g.tracker.PathSummaries(g.InputLocation(in), g.OutputLocation(out))
			if reach.IsEmpty() {
				continue
			}
			if conn[in] == nil {
				conn[in] = make(map[int]*antichain.Antichain[S])
			}
			conn[in][out] = reach
		}
	}
	// A subgraph holds no capabilities of its own at start of day beyond
	// what its children already reported through AddChild; nothing further
	// to charge here.
	return conn, changebatch.New[operator.OutputTime[T]]()
}

func (g *Subgraph[T, S]) SetExternalSummary() {
	// A subgraph's own external-frontier effect arrives through
	// UpdateInputFrontier, called directly by the parent; there is nothing
	// additional to do generically here.
}

// Schedule runs every not-yet-complete child once, in index order, per
// spec.md §4.4 step (v); this subgraph remains incomplete while any
// child is incomplete or any location in its own tracker still has a
// live pointstamp.
func (g *Subgraph[T, S]) Schedule() bool {
	anyIncomplete := false
	for i, child := range g.children {
		if g.done[i] {
			continue
		}
		incomplete := child.Schedule()
		for _, d := range child.Drain().Drain() {
			loc := pointstamp.Target(i, d.Key.Port)
			if d.Key.Output {
				loc = pointstamp.Source(i, d.Key.Port)
			}
			g.tracker.UpdatePointstamp(loc, d.Key.Time, d.Delta)
		}
		if incomplete {
			anyIncomplete = true
		} else {
			g.done[i] = true
		}
	}
	return anyIncomplete || !g.tracker.Idle()
}

// NotifyMe reports false: a subgraph has no notification logic of its
// own, only its children do, and each child registers its own NotifyMe.
func (g *Subgraph[T, S]) NotifyMe() bool {
	return false
}
