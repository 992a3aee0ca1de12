package dataflow

import (
	"sync"

	"github.com/google/uuid"

	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
)

// DataflowId identifies one computation's dataflow graph across all
// workers, replacing the teacher's implicit small-int node identity with
// a generated uuid.UUID (SPEC_FULL.md §6.6).
//
// DataflowId's LessEqual is the discrete order (equal to itself, and to
// nothing else): antichain.MutableAntichain[DataflowId]'s "minimal
// elements with positive count" is then exactly "the set of currently
// still-referenced dataflow ids", which is precisely the bookkeeping
// spec.md §4.6's frozen-dataflow mechanism needs — no dataflow id is
// ever "less than" another, so every live id independently stays in the
// frontier until its own count reaches zero.
type DataflowId uuid.UUID

// LessEqual implements order.PartialOrder[DataflowId] as the discrete
// order: a id is LessEqual to itself only.
func (d DataflowId) LessEqual(other DataflowId) bool {
	return d == other
}

func (d DataflowId) String() string {
	return uuid.UUID(d).String()
}

// Registry tracks, on one worker, the set of active and frozen dataflows,
// and the cluster-wide scheduling frontier spec.md §4.6 requires before a
// frozen dataflow's resources may be released.
//
// Grounded on original_source/src/progress/frontier.rs's MutableAntichain-
// of-DataflowId pattern: rather than a bespoke reference counter, the
// already-built antichain.MutableAntichain[DataflowId] (package
// antichain) does the zero-crossing detection the release decision needs.
type Registry struct {
	mu       sync.Mutex
	active   map[DataflowId]struct{}
	frozen   map[DataflowId]struct{}
	tracking *antichain.MutableAntichain[DataflowId]
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		active:   make(map[DataflowId]struct{}),
		frozen:   make(map[DataflowId]struct{}),
		tracking: antichain.NewMutable[DataflowId](),
	}
}

// Create allocates a fresh DataflowId, marks it active, and seeds the
// cluster-wide tracking antichain with one reference per peer —
// analogous to spec.md §4.4's "the root worker bumps [initial
// capability] counts by the peer count": every worker constructs the
// identical dataflow graph at the same logical moment, so each worker's
// own Registry can account for all peerCount references up front rather
// than waiting on peerCount separate network messages. Only the later,
// asynchronous drop decision genuinely needs a vote per peer (Drop plus
// ApplyPeerDrop).
func (r *Registry) Create(peerCount int) DataflowId {
	id := DataflowId(uuid.New())
	r.Adopt(id, peerCount)
	return id
}

// Adopt seeds peerCount references for an id minted by another worker's
// Create call. Dataflow construction is single-program-multiple-data
// across workers (spec.md §4.4: every worker builds an identical
// graph), but the id itself is a uuid.UUID rather than a position in a
// lock-step construction sequence, so it cannot simply be regenerated
// independently on each worker — it must be disseminated (e.g. over the
// worker 0 broadcasting it to every peer the same way
// DropBroadcaster's own channel disseminates the later drop votes) and
// then adopted here by every worker other than the one that called
// Create.
func (r *Registry) Adopt(id DataflowId, peerCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[id] = struct{}{}
	r.tracking.Update(id, int64(peerCount))
}

// Drop moves id from active to frozen and contributes this worker's own
// -1 vote that it may no longer reference id, per spec.md §4.6. It
// returns true exactly when that vote was the last outstanding one (a
// single peer, or every remote vote already folded in via ApplyPeerDrop)
// and id's resources may now be released; otherwise release happens when
// ApplyPeerDrop folds in the last remaining peer vote.
func (r *Registry) Drop(id DataflowId) (released bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.active[id]; !ok {
		return false
	}
	delete(r.active, id)
	r.frozen[id] = struct{}{}
	return r.retireLocked(id)
}

// ApplyPeerDrop folds in one remote peer's own drop vote for id, received
// over the internal broadcast channel spec.md §4.6 describes. It returns
// true exactly when this was the last outstanding vote and id's resources
// may now be released everywhere.
func (r *Registry) ApplyPeerDrop(id DataflowId) (released bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retireLocked(id)
}

func (r *Registry) retireLocked(id DataflowId) bool {
	for _, d := range r.tracking.Update(id, -1) {
		if d.Key == id && d.Delta == -1 {
			delete(r.frozen, id)
			return true
		}
	}
	return false
}

// IsActive reports whether id is currently an active dataflow on this
// worker.
func (r *Registry) IsActive(id DataflowId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[id]
	return ok
}

// IsFrozen reports whether id has been locally dropped but is still
// awaiting every peer's own drop vote before release.
func (r *Registry) IsFrozen(id DataflowId) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.frozen[id]
	return ok
}

// SchedulingFrontier returns the current cluster-wide set of dataflow ids
// any peer might still reference — the antichain whose emptying for a
// given id is what ApplyPeerDrop/Drop detect.
func (r *Registry) SchedulingFrontier() []DataflowId {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tracking.Frontier().Elements()
}
