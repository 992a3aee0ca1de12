package operator

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// OutputTime pairs an output port with a timestamp, the key the
// initial-capabilities change-batch returned from GetInternalSummary is
// indexed by.
type OutputTime[T any] struct {
	Port int
	Time T
}

// PortDelta is one entry of the pointstamp change an operator reports
// after a Schedule call: a signed count against one of its own ports
// (Output distinguishes an output port from an input port) at a
// timestamp. A positive Delta at an output port reports a new capability
// or in-flight message created there; a negative Delta at an input port
// reports a message consumed (retiring the +1 the channel puller
// credited on arrival).
type PortDelta[T any] struct {
	Output bool
	Port   int
	Time   T
}

// Connectivity is an operator's declared I -> (O -> Antichain<Summary>)
// table, per spec.md §3's Operator definition: connectivity[in][out] is
// the antichain of minimal summaries describing how a message or
// capability held at input in may, through this operator's own logic,
// result in output on out.
type Connectivity[S order.PartialOrder[S]] map[int]map[int]*antichain.Antichain[S]

// Operator is spec.md §4.4's four-callable contract. T is the scope's
// timestamp type and S its path-summary type, matching pointstamp.Tracker.
type Operator[T order.PartialOrder[T], S order.PathSummary[T, S]] interface {
	// Name identifies the operator for logging.
	Name() string
	// Address is this operator's path of indices from the dataflow root.
	Address() []int
	// Inputs and Outputs report the operator's port counts.
	Inputs() int
	Outputs() int

	// GetInternalSummary is called once at construction: it returns the
	// operator's connectivity table and the change-batch of capabilities
	// it holds on its own outputs at start of day.
	GetInternalSummary() (Connectivity[S], *changebatch.ChangeBatch[OutputTime[T]])

	// SetExternalSummary notifies the operator that external frontiers
	// have been populated in the scope's shared progress state.
	SetExternalSummary()

	// Schedule runs the operator once. It returns true while the
	// operator may still be scheduled again, and false once it is
	// complete and should be reaped by the worker.
	Schedule() bool

	// Drain returns the pointstamp changes (capabilities acquired or
	// released, messages produced or consumed) this operator has to
	// report since the last Drain call, per spec.md §4.4 step (vi): the
	// parent subgraph folds these into its own reachability tracker
	// immediately after each Schedule call.
	Drain() *changebatch.ChangeBatch[PortDelta[T]]

	// NotifyMe reports whether this operator wants frontier-change
	// notifications; operators with no notify logic return false to
	// avoid being woken on every frontier motion.
	NotifyMe() bool
}
