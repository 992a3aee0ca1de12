// Package operator implements spec.md §4.4 and §4.7's operator-facing
// contracts: the Operator lifecycle itself, and the InputHandle/
// OutputHandle/Buffer/Session abstractions an operator body uses to pull
// and push records under capability discipline.
//
// Grounded on model/node.go's Node type (named fields, four-phase
// construct/configure/run/shutdown lifecycle) generalized from a single
// consensus node to an arbitrary dataflow operator.
package operator

// Container is the opaque payload batch spec.md §3 requires: the core
// only needs a record count for accounting and an emptiness check.
type Container interface {
	RecordCount() int64
	IsEmpty() bool
}

// Partitionable is implemented by containers usable with an Exchange
// pact (package channel): it must be able to split its own records
// across destinations chosen by dest.
type Partitionable[R any] interface {
	Container
	PushPartitioned(records []R, dest func(R) int)
}
