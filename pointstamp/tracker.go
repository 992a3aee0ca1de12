package pointstamp

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// FrontierChange is one entry of the (T, ±1) stream a Tracker emits as a
// location's implied frontier moves, per spec.md §4.3: "surfaced as the
// (T, ±1) stream from its mutable antichain."
type FrontierChange[T any] struct {
	Location Location
	Time     T
	Delta    int64
}

type edge[S any] struct {
	from, to Location
	summary  S
}

// Tracker maintains, for a single scope, the derived path-summary matrix
// between every pair of locations and the live pointstamp counts at each
// location, and from the two derives the implied frontier at every
// location — spec.md §4.3 in full.
//
// T is the scope's timestamp type; S is its Summary type, which must also
// be partially ordered (order.PathSummary) so that the matrix can keep
// only the antichain of minimal summaries between any two locations.
type Tracker[T order.PartialOrder[T], S order.PathSummary[T, S]] struct {
	identity S
	edges    []edge[S]
	universe map[Location]bool

	pathSummary map[Location]map[Location]*antichain.Antichain[S]
	raw         map[Location]map[T]int64
	frontiers   map[Location]*antichain.MutableAntichain[T]
}

// NewTracker constructs an empty Tracker. identity must be the zero-effect
// summary for S (applying it to any t returns t unchanged) — it seeds
// every location's reflexive path summary to itself, so that a pointstamp
// held directly at a location always contributes to that same location's
// own frontier.
func NewTracker[T order.PartialOrder[T], S order.PathSummary[T, S]](identity S) *Tracker[T, S] {
	return &Tracker[T, S]{
		identity:    identity,
		universe:    make(map[Location]bool),
		pathSummary: make(map[Location]map[Location]*antichain.Antichain[S]),
		raw:         make(map[Location]map[T]int64),
		frontiers:   make(map[Location]*antichain.MutableAntichain[T]),
	}
}

// AddInternalSummary records operator node's user-declared connectivity:
// a message or capability held at input port in may, per the operator's
// own semantics, result in output on port out under summary. Called once
// per (node, in, out) pair during dataflow construction, per spec.md
// §4.4's get_internal_summary.
func (tr *Tracker[T, S]) AddInternalSummary(node, in, out int, summary S) {
	tr.addEdge(Target(node, in), Source(node, out), summary)
}

// AddEdgeSummary records a fixed graph edge from a source output port to
// a target input port, carrying the given summary (ordinarily the
// identity summary, except for feedback-style edges that advance time).
func (tr *Tracker[T, S]) AddEdgeSummary(source, target Location, summary S) {
	tr.addEdge(source, target, summary)
}

func (tr *Tracker[T, S]) addEdge(from, to Location, summary S) {
	tr.edges = append(tr.edges, edge[S]{from, to, summary})
	tr.universe[from] = true
	tr.universe[to] = true
}

// Recompute (re)derives the path-summary matrix as the transitive closure
// of every recorded internal and edge summary, meeting at each location
// into the antichain of minimal summaries reaching it — spec.md §4.3's
// "derived path summary matrix ... computed as the transitive closure of
// internal summaries composed with edge summaries."
//
// Recompute is called once after a scope's topology (its children and
// edges) is fully constructed; spec.md §4.4 fixes edges at construction
// time, so the matrix never needs to change thereafter.
func (tr *Tracker[T, S]) Recompute() {
	ps := make(map[Location]map[Location]*antichain.Antichain[S], len(tr.universe))
	for loc := range tr.universe {
		ps[loc] = map[Location]*antichain.Antichain[S]{loc: antichain.New[S]()}
		ps[loc][loc].Insert(tr.identity)
	}

	changed := true
	for changed {
		changed = false
		for _, e := range tr.edges {
			if insertPath(ps, e.from, e.to, e.summary) {
				changed = true
			}
			for to2, reach := range ps[e.to] {
				for _, s2 := range reach.Elements() {
					composed := e.summary.FollowedBy(s2)
					if insertPath(ps, e.from, to2, composed) {
						changed = true
					}
				}
			}
		}
	}
	tr.pathSummary = ps
}

func insertPath[S any](ps map[Location]map[Location]*antichain.Antichain[S], from, to Location, summary S) bool {
	if ps[from] == nil {
		ps[from] = make(map[Location]*antichain.Antichain[S])
	}
	if ps[from][to] == nil {
		ps[from][to] = antichain.New[S]()
	}
	return ps[from][to].Insert(summary)
}

// UpdatePointstamp applies delta to the live count at (loc, t) — a
// capability constructed or released, or a message that arrived at or was
// consumed from loc — and returns the resulting frontier movements at
// every location reachable from loc.
//
// Per spec.md §4.3, a location's frontier changes only in response to
// pointstamp-count transitions through zero: a count moving away from
// zero adds t's image under every reachable path summary to the target
// frontier's live multiset; a count returning to zero removes it.
func (tr *Tracker[T, S]) UpdatePointstamp(loc Location, t T, delta int64) []FrontierChange[T] {
	if delta == 0 {
		return nil
	}
	counts := tr.raw[loc]
	if counts == nil {
		counts = make(map[T]int64)
		tr.raw[loc] = counts
	}
	before := counts[t]
	after := before + delta
	if after == 0 {
		delete(counts, t)
	} else {
		counts[t] = after
	}

	switch {
	case before == 0 && after != 0:
		return tr.propagate(loc, t, 1)
	case before != 0 && after == 0:
		return tr.propagate(loc, t, -1)
	default:
		return nil
	}
}

func (tr *Tracker[T, S]) propagate(loc Location, t T, sign int64) []FrontierChange[T] {
	var changes []FrontierChange[T]
	for to, reach := range tr.pathSummary[loc] {
		for _, s := range reach.Elements() {
			t2, ok := s.ResultsIn(t)
			if !ok {
				// Summary overflow: the message this pointstamp would
				// produce downstream is dropped, per spec.md §4.2 — not
				// an error, simply no contribution to that frontier.
				continue
			}
			fr := tr.frontier(to)
			for _, d := range fr.Update(t2, sign) {
				changes = append(changes, FrontierChange[T]{Location: to, Time: d.Key, Delta: d.Delta})
			}
		}
	}
	return changes
}

func (tr *Tracker[T, S]) frontier(loc Location) *antichain.MutableAntichain[T] {
	fr := tr.frontiers[loc]
	if fr == nil {
		fr = antichain.NewMutable[T]()
		tr.frontiers[loc] = fr
	}
	return fr
}

// Frontier returns the current implied frontier antichain at loc: the
// minimal timestamps that could still appear there.
func (tr *Tracker[T, S]) Frontier(loc Location) *antichain.Antichain[T] {
	return tr.frontier(loc).Frontier()
}

// PathSummaries returns the antichain of minimal summaries reaching to
// from from, or an empty antichain if there is no path. Package dataflow
// uses this to derive a Subgraph's own connectivity (its boundary input
// to boundary output path summaries) for reporting up to its parent
// scope's tracker, per spec.md §4.4's get_internal_summary.
func (tr *Tracker[T, S]) PathSummaries(from, to Location) *antichain.Antichain[S] {
	if reach, ok := tr.pathSummary[from]; ok {
		if a, ok := reach[to]; ok {
			return a
		}
	}
	return antichain.New[S]()
}

// PointstampCount returns the raw (pre-minimization) live count at
// (loc, t), for testing invariant (1) of spec.md §8 directly.
func (tr *Tracker[T, S]) PointstampCount(loc Location, t T) int64 {
	return tr.raw[loc][t]
}

// Idle reports whether no location in the tracker has any live
// pointstamp — used by a subgraph to decide it has no more work ever to
// do (spec.md §4.4: "remains incomplete while ... any location has a
// non-empty pointstamp multiset").
func (tr *Tracker[T, S]) Idle() bool {
	for _, counts := range tr.raw {
		if len(counts) > 0 {
			return false
		}
	}
	return true
}
