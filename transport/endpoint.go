package transport

import (
	"bufio"
	"fmt"
	"net"
	"reflect"
	"sync"

	"github.com/TimelyDataflow/timely-dataflow-sub000/slab"
)

// recvBufferSize is how much the recv loop tries to read from the
// socket at a time.
const recvBufferSize = 64 * 1024

// Deliverer receives a fully reassembled frame's payload. channel.
// Allocator satisfies this with exactly this method signature.
type Deliverer interface {
	Deliver(channelID uint64, source int, payload []byte)
}

// Endpoint is spec.md §4.9's per-remote-peer transport: one recv loop
// draining conn into a slab.Slab and peeling complete frames off to hand
// to a Deliverer, and one send loop round-robining this peer's outbound
// merge queues — one per local channel that has sent it anything — into
// a buffered writer, per spec.md §4.9's "Send loop. Round-robins over
// its source merge queues."
type Endpoint struct {
	self, peer int
	conn       net.Conn
	r          *bufio.Reader
	w          *bufio.Writer

	mu     sync.Mutex
	queues map[uint64]*slab.MergeQueue
	order  []uint64
	seqno  uint64
}

// NewEndpoint wraps an already-connected, blocking socket to peer.
// spec.md §6 forbids setting it non-blocking: "the core setting them
// non-blocking is explicitly forbidden."
func NewEndpoint(self, peer int, conn net.Conn) *Endpoint {
	return &Endpoint{
		self:   self,
		peer:   peer,
		conn:   conn,
		r:      bufio.NewReader(conn),
		w:      bufio.NewWriter(conn),
		queues: make(map[uint64]*slab.MergeQueue),
	}
}

// queueFor returns, creating if necessary, the outbound merge queue for
// channelID, registering it in round-robin order the first time one is
// needed.
func (e *Endpoint) queueFor(channelID uint64) *slab.MergeQueue {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queues[channelID]
	if !ok {
		q = slab.NewMergeQueue()
		e.queues[channelID] = q
		e.order = append(e.order, channelID)
	}
	return q
}

func (e *Endpoint) queueOrder() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]uint64(nil), e.order...)
}

// Send frames payload for channelID and enqueues it for the send loop to
// write out in its own time. Endpoint is the per-peer unit
// channel.Fabric.Send fans a Cluster's outbound traffic out to.
func (e *Endpoint) Send(channelID uint64, payload []byte) {
	e.mu.Lock()
	seq := e.seqno
	e.seqno++
	e.mu.Unlock()

	h := Header{Channel: channelID, Source: uint64(e.self), Target: uint64(e.peer), Length: uint64(len(payload)), Seqno: seq}
	framed := append(h.Encode(), payload...)
	e.queueFor(channelID).Push(slab.Wrap(framed))
}

// RecvLoop reads frames off conn until the end-of-stream sentinel or a
// read error, handing each payload to deliver. Run it on its own
// goroutine for the lifetime of the connection; any error it returns is
// fatal to the worker per spec.md §4.9: "any other read error aborts the
// worker (progress correctness cannot be recovered locally)."
func (e *Endpoint) RecvLoop(deliver Deliverer) error {
	s := slab.NewSlab(recvBufferSize)
	for {
		if err := e.fill(s, HeaderSize); err != nil {
			return err
		}
		h := DecodeHeader(s.Peek())
		if h.EndOfStream() {
			if s.ValidLen() != HeaderSize {
				return fmt.Errorf("transport: trailing bytes after end-of-stream frame from peer %d", e.peer)
			}
			s.Extract(HeaderSize)
			return nil
		}
		if err := e.fill(s, HeaderSize+int(h.Length)); err != nil {
			return err
		}
		s.Extract(HeaderSize)
		payload := s.Extract(int(h.Length))
		deliver.Deliver(h.Channel, int(h.Source), payload.Data())
	}
}

// fill reads from the connection until the slab holds at least n valid
// bytes.
func (e *Endpoint) fill(s *slab.Slab, n int) error {
	for s.ValidLen() < n {
		buf := s.EnsureCapacity(recvBufferSize)
		read, err := e.r.Read(buf)
		if read > 0 {
			s.Grow(read)
		}
		if err != nil {
			return fmt.Errorf("transport: recv from peer %d: %w", e.peer, err)
		}
	}
	return nil
}

// SendLoop round-robins over this endpoint's outbound merge queues,
// draining each into the buffered writer, flushing and parking once
// every queue has gone quiet, per spec.md §4.9's send-side loop. It
// writes the end-of-stream sentinel and half-closes the socket once stop
// is closed.
func (e *Endpoint) SendLoop(stop <-chan struct{}) error {
	var batch []slab.Bytes
	for {
		select {
		case <-stop:
			return e.shutdown()
		default:
		}

		wrote := false
		for _, id := range e.queueOrder() {
			q := e.queueFor(id)
			if q.Stale() {
				continue
			}
			batch = batch[:0]
			batch = q.Drain(batch)
			if len(batch) == 0 {
				q.SetStale(true)
				continue
			}
			for _, b := range batch {
				if _, err := e.w.Write(b.Data()); err != nil {
					return fmt.Errorf("transport: send to peer %d: %w", e.peer, err)
				}
			}
			wrote = true
		}
		if !wrote {
			if err := e.w.Flush(); err != nil {
				return fmt.Errorf("transport: flush to peer %d: %w", e.peer, err)
			}
			if stopped := e.park(stop); stopped {
				return e.shutdown()
			}
		}
	}
}

// park selects over every outbound queue's Signal plus stop, using
// reflect.Select since the queue set is only known at runtime; it wakes
// on the first one to fire and clears every queue's stale flag so the
// next round re-polls them all.
func (e *Endpoint) park(stop <-chan struct{}) (stopped bool) {
	order := e.queueOrder()
	cases := make([]reflect.SelectCase, 0, len(order)+1)
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(stop)})
	for _, id := range order {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(e.queueFor(id).Signal())})
	}
	chosen, _, _ := reflect.Select(cases)
	if chosen == 0 {
		return true
	}
	for _, id := range order {
		e.queueFor(id).SetStale(false)
	}
	return false
}

func (e *Endpoint) shutdown() error {
	sentinel := Header{Source: uint64(e.self), Target: uint64(e.peer)}
	if _, err := e.w.Write(sentinel.Encode()); err != nil {
		return err
	}
	if err := e.w.Flush(); err != nil {
		return err
	}
	if closer, ok := e.conn.(interface{ CloseWrite() error }); ok {
		return closer.CloseWrite()
	}
	return nil
}
