// Command tdworker is a minimal example host process: it parses just
// enough of the command line to build a config.Config, dials the
// cluster, and runs an otherwise-empty worker.Worker to completion.
// Wiring an actual dataflow graph onto the returned Worker's Root and
// Allocator is left to the caller this binary's flags are not meant to
// express; this command only demonstrates the CLI / configuration
// boundary spec.md §6 assigns to the host rather than the core. The
// teacher's own tools/qsc command takes the same stance (flag parsing
// commented out in favor of a hand-rolled switch over os.Args); here
// the surface is just small enough that the stdlib flag package covers
// it without needing a framework from the pack.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/TimelyDataflow/timely-dataflow-sub000/config"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/worker"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		hostFile = flag.String("hostfile", "", "TOML file listing [[peer]] addresses, in process-index order")
		index    = flag.Int("index", -1, "this process's index into the host file")
		threads  = flag.Int("threads", 1, "worker threads to run in this process")
		modeStr  = flag.String("mode", "eager", "progress broadcast mode: eager or demand")
		maxPark  = flag.Duration("max-park", 50*time.Millisecond, "longest the scheduler may block between activations")
	)
	flag.Parse()

	if err := run(*hostFile, *index, *threads, *modeStr, *maxPark); err != nil {
		log.Fatal(err)
	}
}

func run(hostFile string, index, threads int, modeStr string, maxPark time.Duration) error {
	if hostFile == "" || index < 0 {
		return fmt.Errorf("tdworker: -hostfile and -index are required")
	}
	peers, err := config.LoadHostFile(hostFile)
	if err != nil {
		return fmt.Errorf("tdworker: %w", err)
	}
	mode, err := config.ParseMode(modeStr)
	if err != nil {
		return fmt.Errorf("tdworker: %w", err)
	}
	cfg := config.Config{
		Threads:   threads,
		Index:     index,
		Processes: len(peers),
		HostFile:  hostFile,
		Peers:     peers,
		Mode:      mode,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("tdworker: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := logging.NewZerologSink(os.Stderr)

	conns, err := dialCluster(ctx, cfg, logger)
	if err != nil {
		return err
	}

	metrics := worker.NewMetrics(prometheus.DefaultRegisterer)

	w, err := worker.New[order.Step, order.StepSummary](cfg, conns, order.Identity, maxPark, logger, metrics)
	if err != nil {
		return fmt.Errorf("tdworker: %w", err)
	}

	// A caller wiring a real dataflow graph would add operators onto
	// w.Root() via w.Allocator() here, before Run starts scheduling.
	return w.Run(ctx, func() bool { return false })
}
