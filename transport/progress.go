package transport

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
)

// ProgressEntry is one (Location, T, ±1) triple a scope's reachability
// tracker exchanges with its peers, per spec.md §6's wire format for
// progress channels: "length-prefixed encoded change-batch of
// ((Location, T), i64) triples."
type ProgressEntry[T any] struct {
	Location pointstamp.Location
	Time     T
	Delta    int64
}

// ProgressKey is the change-batch key a Sender's input batches are
// indexed by: one entry per (Location, T) pair.
type ProgressKey[T any] struct {
	Location pointstamp.Location
	Time     T
}

// Mode selects spec.md §4.5's progress flush policy. Sender itself
// always transmits whatever change-batch it is handed; Mode is carried
// here purely so a caller wiring a scope's progress traffic can record
// which policy this channel is configured for and apply SPEC_FULL.md
// §6.5's demand-mode filter (WithheldInDemandMode, below) before
// calling Send.
type Mode int

const (
	Eager Mode = iota
	Demand
)

// Sender is spec.md §4.5's per-scope progress broadcaster: one
// channel.Broadcast pusher (so same-process peers in a multi-worker
// process never pay an encode/decode round trip) plus the single
// puller this worker's own inbound progress traffic arrives on.
type Sender[T order.PartialOrder[T]] struct {
	worker int
	mode   Mode
	seq    order.Step

	pusher channel.Pusher[order.Step, ProgressEntry[T]]
	puller *channel.Puller[order.Step, ProgressEntry[T]]
	log    *ProgressLog[T]
}

// NewSender allocates the progress channel for one scope, identified by
// address in the worker's dataflow address space.
func NewSender[T order.PartialOrder[T]](a *channel.Allocator, address []int, codec channel.Codec[order.Step, ProgressEntry[T]], mode Mode) *Sender[T] {
	pusher, puller := channel.NewBroadcast[order.Step, ProgressEntry[T]](a, address, codec)
	return &Sender[T]{
		worker: a.Index(),
		mode:   mode,
		pusher: pusher,
		puller: puller,
		log:    NewProgressLog[T](),
	}
}

// Mode reports the progress policy this Sender was configured with.
func (s *Sender[T]) Mode() Mode { return s.mode }

// Send compacts cb and, if it has anything left, broadcasts a copy to
// every peer tagged with this worker's own sequence number — spec.md
// §4.5: "compacts; if non-empty, attaches (source_worker,
// sequence_number) and broadcasts a copy to every peer." An empty batch
// (including one emptied entirely by SPEC_FULL.md §6.5's demand-mode
// filter before Send is called) is a no-op.
func (s *Sender[T]) Send(cb *changebatch.ChangeBatch[ProgressKey[T]]) {
	deltas := cb.Drain()
	if len(deltas) == 0 {
		return
	}
	entries := make([]ProgressEntry[T], len(deltas))
	for i, d := range deltas {
		entries[i] = ProgressEntry[T]{Location: d.Key.Location, Time: d.Key.Time, Delta: d.Delta}
	}
	s.log.Record(entries)
	s.pusher.Push(s.seq, entries, false)
	s.seq++
}

// Recv drains every inbound progress message that has arrived since the
// last call, extending dst with each entry it carried — spec.md §4.5:
// "drains all inbound messages, extending the provided change-batch."
func (s *Sender[T]) Recv(dst *changebatch.ChangeBatch[ProgressKey[T]]) {
	for {
		m, ok := s.puller.Pull()
		if !ok {
			return
		}
		for _, e := range m.Records {
			dst.Update(ProgressKey[T]{Location: e.Location, Time: e.Time}, e.Delta)
		}
	}
}

// Log exposes the replay-diagnostics log of every batch this Sender has
// transmitted (SPEC_FULL.md §6.3).
func (s *Sender[T]) Log() *ProgressLog[T] { return s.log }

// WithheldInDemandMode applies SPEC_FULL.md §6.5's resolution of
// spec.md §4.5's demand-mode Open Question: a change-batch is withheld
// iff every key in it is already implied by a currently-held capability
// at a timestamp less-equal to that key's timestamp, i.e. the batch
// cannot retire a frontier element no local capability already covers.
// covered is supplied by the caller (normally backed by the scope's own
// pointstamp.Tracker held-capability set) and is consulted per key. In
// Eager mode this is a no-op: every entry always survives.
func WithheldInDemandMode[T order.PartialOrder[T]](mode Mode, cb *changebatch.ChangeBatch[ProgressKey[T]], covered func(ProgressKey[T]) bool) *changebatch.ChangeBatch[ProgressKey[T]] {
	if mode == Eager {
		return cb
	}
	out := changebatch.New[ProgressKey[T]]()
	for _, d := range cb.Drain() {
		if !covered(d.Key) {
			out.Update(d.Key, d.Delta)
		}
	}
	return out
}
