// Package pointstamp implements spec.md §4.3's reachability tracker: the
// path-summary matrix and the per-location pointstamp accounting that
// together derive the implied frontier at every input port of a scope.
//
// This is grounded on dist/causal.go's matrix-clock update loop (a matrix
// indexed by (node, node), incrementally maintained as messages arrive) —
// the reachability tracker's path-summary matrix has the same shape, just
// indexed by (location, location) and valued in antichains of summaries
// rather than single vector-clock entries.
package pointstamp

import "fmt"

// Location is a (node, port) pair identifying a place in a scope's
// operator graph where a pointstamp (a capability or an in-flight
// message) can live, per spec.md §3. Node is an operator's index within
// its parent scope; Output distinguishes a source (output) port from a
// target (input) port.
type Location struct {
	Node   int
	Output bool
	Port   int
}

func (l Location) String() string {
	kind := "in"
	if l.Output {
		kind = "out"
	}
	return fmt.Sprintf("node%d.%s%d", l.Node, kind, l.Port)
}

// Target builds the Location for operator node's input port.
func Target(node, port int) Location {
	return Location{Node: node, Output: false, Port: port}
}

// Source builds the Location for operator node's output port.
func Source(node, port int) Location {
	return Location{Node: node, Output: true, Port: port}
}
