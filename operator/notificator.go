package operator

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/antichain"
	"github.com/TimelyDataflow/timely-dataflow-sub000/capability"
	"github.com/TimelyDataflow/timely-dataflow-sub000/changebatch"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// Notificator is operator-library ergonomics atop the raw notify_me
// contract of spec.md §4.4, recovered from
// original_source/src/dataflow/operators/generic/notificator.rs: it
// holds capabilities at the times an operator has asked to be notified
// at, and releases (fires) them once the observed input frontier no
// longer permits an earlier message to arrive.
//
// Requests are held in a CapabilitySet; a request fires once no element
// of the current input frontier is less-equal to its requested time.
type Notificator[T order.PartialOrder[T]] struct {
	pending *capability.CapabilitySet[T]
	batch   *changebatch.ChangeBatch[T]
}

// NewNotificator returns an empty Notificator charging capabilities
// against batch (normally the operator's own output change-batch).
func NewNotificator[T order.PartialOrder[T]](batch *changebatch.ChangeBatch[T]) *Notificator[T] {
	return &Notificator[T]{
		pending: capability.NewSet[T](batch),
		batch:   batch,
	}
}

// NotifyAt requests a notification at cap.Time(), retaining cap (a
// capability the caller must not release itself; the Notificator now
// owns it until it fires).
func (n *Notificator[T]) NotifyAt(cap *capability.Capability[T]) {
	n.pending.Add(cap)
}

// ForEach fires f once for every pending request whose time is no
// longer reachable under frontier — i.e. frontier.LessEqual(time) is
// false for every element of frontier — releasing that request's
// capability, in ascending time order of firing is not guaranteed.
func (n *Notificator[T]) ForEach(frontier *antichain.Antichain[T], f func(cap *capability.Capability[T])) {
	ready, remaining := n.pending.Partition(func(t T) bool {
		return !frontier.LessEqual(t)
	})
	n.pending = remaining
	for _, c := range ready {
		f(c)
		c.Release()
	}
}
