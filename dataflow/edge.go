// Package dataflow implements spec.md §3 and §4.4's Subgraph and Edge: the
// recursive operator-graph container that owns children, a reachability
// tracker, and the frozen-dataflow bookkeeping of §4.6.
//
// Grounded on tlc/minnet/node.go's All []*Node graph-of-peers
// construction (a flat slice of participants wired by index), generalized
// to a recursive container of operator.Operator values connected by
// pointstamp.Location edges.
package dataflow

import "github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"

// Edge is a fixed (Source, Target) connection within one scope, per
// spec.md §3. The channel identifier used by the allocator (package
// channel) to actually move records along this edge is assigned
// separately at channel-allocation time; Edge here only records the
// topology the reachability tracker closes over.
type Edge struct {
	Source pointstamp.Location
	Target pointstamp.Location
}
