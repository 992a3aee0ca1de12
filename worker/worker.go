// Package worker wires every lower-level package into one runnable
// per-process participant: the scheduler loop, the channel allocator,
// the transport cluster, and the dataflow registry, exactly as
// tlc/minnet/node.go's Run(threshold, nnodes) wires a TLC node's
// gossip layer, causal layer, and peer pipes into one goroutine per
// participant. Where the teacher's Run function is a free function
// operating on package-level All []*Node state, Worker is an
// instantiable value: spec.md §7's "no global mutable state... each
// worker owns its state."
package worker

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/config"
	"github.com/TimelyDataflow/timely-dataflow-sub000/dataflow"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/scheduler"
	"github.com/TimelyDataflow/timely-dataflow-sub000/transport"
)

// Worker is one network-addressable participant among cfg.Processes,
// per spec.md §6's "(my_index, peer_addresses[])" host identity. T is
// the root scope's timestamp type and S its path-summary type,
// matching dataflow.Subgraph.
//
// A process wanting more than one local worker thread (spec.md §6's
// "number of worker threads per process") constructs one Worker per
// thread, each with its own distinct index and its own connections;
// routing worker-to-worker traffic within a single process over an
// in-memory fabric rather than a loopback socket is a possible later
// optimization this package does not implement — see DESIGN.md.
type Worker[T order.PartialOrder[T], S order.PathSummary[T, S]] struct {
	index int
	peers int
	mode  transport.Mode

	scheduler *scheduler.Scheduler
	allocator *channel.Allocator
	cluster   *transport.Cluster
	registry  *dataflow.Registry
	root      *dataflow.Subgraph[T, S]
	logger    logging.Logger
	metrics   *Metrics
}

func toTransportMode(m config.Mode) transport.Mode {
	if m == config.Demand {
		return transport.Demand
	}
	return transport.Eager
}

// New builds a Worker for cfg, dialing nothing itself: conns must
// already hold one connected net.Conn per peer index other than
// cfg.Index, per spec.md §6's "the caller passes already-connected
// blocking sockets to the initialization entry point." identity is the
// root scope's zero-effect path summary, exactly as
// dataflow.NewSubgraph requires. maxPark bounds how long the scheduler
// may block between activations (spec.md §4.6's park duration cap).
// logger and metrics may be nil (logging.Discard is substituted;
// metrics stay a no-op).
func New[T order.PartialOrder[T], S order.PathSummary[T, S]](
	cfg config.Config,
	conns map[int]net.Conn,
	identity S,
	maxPark time.Duration,
	logger logging.Logger,
	metrics *Metrics,
) (*Worker[T, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i := 0; i < cfg.Processes; i++ {
		if i == cfg.Index {
			continue
		}
		if _, ok := conns[i]; !ok {
			return nil, fmt.Errorf("worker: missing connection to peer %d", i)
		}
	}
	if logger == nil {
		logger = logging.Discard
	}

	endpoints := make(map[int]*transport.Endpoint, len(conns))
	for peer, conn := range conns {
		endpoints[peer] = transport.NewEndpoint(cfg.Index, peer, conn)
	}
	cluster := transport.NewCluster(cfg.Index, cfg.Processes, endpoints)

	sched := scheduler.New(maxPark)
	sched.OnPark = func() { logger.Log(logging.Event{Kind: logging.Park, Worker: cfg.Index}) }
	sched.OnUnpark = func() { logger.Log(logging.Event{Kind: logging.Unpark, Worker: cfg.Index}) }

	allocator := channel.NewAllocator(cluster, sched.Activations())
	root := dataflow.NewSubgraph[T, S]("root", nil, 0, 0, identity)
	logger.Log(logging.Event{Kind: logging.OperatorCreated, Worker: cfg.Index, Address: root.Address(), Fields: map[string]any{"name": root.Name()}})

	return &Worker[T, S]{
		index:     cfg.Index,
		peers:     cfg.Processes,
		mode:      toTransportMode(cfg.Mode),
		scheduler: sched,
		allocator: allocator,
		cluster:   cluster,
		registry:  dataflow.NewRegistry(),
		root:      root,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

// Index and Peers report this worker's position in, and the size of,
// its computation, per spec.md §6's host identity.
func (w *Worker[T, S]) Index() int { return w.index }
func (w *Worker[T, S]) Peers() int { return w.peers }

// Mode reports the progress-broadcast strategy this worker was built
// with.
func (w *Worker[T, S]) Mode() transport.Mode { return w.mode }

// Allocator exposes the channel allocator a dataflow-construction
// caller uses to build Pipeline/Exchange/Broadcast pacts between its
// own operators, per spec.md §4.8.
func (w *Worker[T, S]) Allocator() *channel.Allocator { return w.allocator }

// Registry exposes this worker's dataflow registry, for
// drop_dataflow/frozen-dataflow bookkeeping per spec.md §4.6.
func (w *Worker[T, S]) Registry() *dataflow.Registry { return w.registry }

// Root returns the worker's root scope, the Subgraph every
// top-level operator is added to via AddChild before Run is called.
func (w *Worker[T, S]) Root() *dataflow.Subgraph[T, S] { return w.root }

// Logger exposes the worker's logging sink, for supporting
// infrastructure (e.g. dataflow construction helpers) that wants to
// report its own structured events under this worker's index.
func (w *Worker[T, S]) Logger() logging.Logger { return w.logger }

// Run drives this worker's transport loops and scheduler loop
// concurrently until schedule reports complete or ctx is cancelled,
// per spec.md §4.6's worker loop: receive phase (the transport recv
// loops feeding the allocator, which activates addresses directly),
// park, dispatch (schedule), reap (handled inside Subgraph.Schedule).
// Run returns once both halves have stopped; a transport loop error
// aborts the whole worker, per spec.md §5's "any thread panic aborts
// the computation."
func (w *Worker[T, S]) Run(ctx context.Context, schedule scheduler.ScheduleFunc) error {
	stop := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.cluster.Run(stop, w.allocator)
		return err
	})
	g.Go(func() error {
		defer close(stop)
		w.logger.Log(logging.Event{Kind: logging.ScheduleStart, Worker: w.index})
		err := w.scheduler.Run(gctx, func() bool {
			incomplete := schedule()
			w.metrics.incSchedule()
			return incomplete
		})
		w.logger.Log(logging.Event{Kind: logging.ScheduleStop, Worker: w.index})
		return err
	})
	return g.Wait()
}
