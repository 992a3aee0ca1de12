package transport

import (
	"golang.org/x/sync/errgroup"

	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
)

// Cluster implements channel.Fabric over one Endpoint per remote peer,
// plus this worker's own index among peerCount total workers. The
// channel package never routes a pusher's own index through
// Fabric.Send (see channel's allocate, which wires the local peer
// directly into the Puller), so Cluster never needs to special-case
// sending to itself.
type Cluster struct {
	index     int
	peers     int
	endpoints map[int]*Endpoint
}

var _ channel.Fabric = (*Cluster)(nil)

// NewCluster returns a Cluster for the worker at index among peerCount
// total workers, communicating with every other worker through the
// given endpoints, keyed by peer index.
func NewCluster(index, peerCount int, endpoints map[int]*Endpoint) *Cluster {
	return &Cluster{index: index, peers: peerCount, endpoints: endpoints}
}

func (c *Cluster) Index() int { return c.index }
func (c *Cluster) Peers() int { return c.peers }

func (c *Cluster) Send(peer int, channelID uint64, payload []byte) {
	c.endpoints[peer].Send(channelID, payload)
}

// Run launches every endpoint's recv and send loop pair, blocks until
// every one of them has returned, and then reports the first error any
// of them returned. A failing loop does not stop the others: each send
// loop returns once stop is closed or a write fails, and each recv loop
// returns when its peer's stream ends or a read fails.
func (c *Cluster) Run(stop <-chan struct{}, deliver Deliverer) error {
	g := new(errgroup.Group)
	for _, ep := range c.endpoints {
		ep := ep
		g.Go(func() error { return ep.RecvLoop(deliver) })
		g.Go(func() error { return ep.SendLoop(stop) })
	}
	return g.Wait()
}
