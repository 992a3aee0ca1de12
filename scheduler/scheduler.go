package scheduler

import (
	"context"
	"time"
)

// ScheduleFunc drives one tick of the worker's dataflow (ordinarily
// dataflow.Subgraph.Schedule for the worker's root scope) and reports
// whether any work remains.
type ScheduleFunc func() bool

// Scheduler runs spec.md §4.6's worker loop: receive phase, park
// decision, dispatch, reap. The receive phase itself (polling the
// channel allocator for events and activating the corresponding
// addresses) happens outside Scheduler, driven by package channel's
// local pushers and Allocator.Deliver (which package transport's recv
// loop calls) calling Activate directly;
// Scheduler only owns the park/dispatch half of the loop, since that is
// the part requiring a single coordinating consumer.
type Scheduler struct {
	activations *Activations
	maxPark     time.Duration

	// OnPark and OnUnpark, if set, are called immediately before and
	// after a park that actually waits (Len() was 0), letting package
	// worker report spec.md §6's park/unpark log events without
	// Scheduler itself depending on the logging package.
	OnPark   func()
	OnUnpark func()
}

// New returns a Scheduler whose park calls never exceed maxPark, even if
// no activation arrives — matching spec.md §4.6's "park duration
// min(user_cap, soonest_scheduled_activation)" with soonest_scheduled
// activation modeled simply as "whenever the next Activate call occurs."
func New(maxPark time.Duration) *Scheduler {
	return &Scheduler{activations: NewActivations(), maxPark: maxPark}
}

// Activations exposes the queue other components (channel pullers,
// transport recv loops, capability construction) activate addresses on.
func (s *Scheduler) Activations() *Activations {
	return s.activations
}

// Step runs one iteration of the loop: if no activation is currently
// pending, park until one arrives or maxPark elapses, then call
// schedule(). It returns schedule's own incomplete flag.
func (s *Scheduler) Step(schedule ScheduleFunc) bool {
	if s.activations.Len() == 0 {
		if s.OnPark != nil {
			s.OnPark()
		}
		timer := time.NewTimer(s.maxPark)
		select {
		case <-s.activations.Doorbell():
			timer.Stop()
		case <-timer.C:
		}
		if s.OnUnpark != nil {
			s.OnUnpark()
		}
	}
	s.activations.Drain()
	return schedule()
}

// Run loops Step until schedule reports complete (false) or ctx is
// cancelled, per spec.md §4.6's worker loop and §5's "no per-operator
// cancellation token" — the only cancellation surface is the context
// passed in, used by a worker shutting down its whole dataflow.
func (s *Scheduler) Run(ctx context.Context, schedule ScheduleFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if !s.Step(schedule) {
			return nil
		}
	}
}
