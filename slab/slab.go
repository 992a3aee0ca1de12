// Package slab implements spec.md §4.1's byte slab and merge queue: the
// recv loop carves each complete frame's payload out of a Slab as a
// Bytes range without copying it, and the send loop queues outbound
// payloads on per-channel MergeQueues. A Bytes range carries no live
// reference count; its backing memory stays alive for as long as the
// garbage collector sees a reference to it.
//
// Grounded on tlc/minnet/node.go's bufio.Reader/bufio.Writer-over-io.Pipe
// scaffolding — the same shape of "growable buffer feeding a framed
// decoder" — generalized to copy-free hand-off of byte ranges.
package slab

import "fmt"

// Slab is a growable heap-backed region of bytes, sliced on demand into
// disjoint sub-ranges (Bytes) that remain valid independently of the slab
// itself being grown later.
type Slab struct {
	buf        []byte
	validStart int // bytes before this index have already been Extract()ed
	validEnd   int // bytes in [validStart, validEnd) are written and unextracted
}

// NewSlab returns an empty Slab with the given initial capacity.
func NewSlab(initialCapacity int) *Slab {
	return &Slab{buf: make([]byte, initialCapacity)}
}

// EnsureCapacity guarantees at least n writable trailing bytes, growing
// the slab by reallocation if necessary, and returns the writable region
// (a slice of length n) for the caller to fill (e.g. via a socket Read).
// Growth never copies sub-ranges already handed out by Extract: those
// remain slices of whatever allocation was current when they were
// extracted, and stay valid for as long as any reference to them is held
// — the old allocation is simply no longer the slab's own buffer.
func (s *Slab) EnsureCapacity(n int) []byte {
	if cap(s.buf)-s.validEnd < n {
		unconsumed := s.validEnd - s.validStart
		newCap := 2 * cap(s.buf)
		if min := unconsumed + n; newCap < min {
			newCap = min
		}
		newBuf := make([]byte, newCap)
		copy(newBuf, s.buf[s.validStart:s.validEnd])
		s.buf = newBuf
		s.validEnd = unconsumed
		s.validStart = 0
	}
	return s.buf[s.validEnd : s.validEnd+n]
}

// Grow records that n bytes just written into the region EnsureCapacity
// returned are now valid (e.g. after a successful socket Read).
func (s *Slab) Grow(n int) {
	s.validEnd += n
}

// ValidLen returns the number of unextracted valid bytes currently
// buffered.
func (s *Slab) ValidLen() int {
	return s.validEnd - s.validStart
}

// Peek returns the currently valid, unextracted bytes without consuming
// them — used by the recv loop to inspect a frame header before deciding
// whether a complete frame is available yet.
func (s *Slab) Peek() []byte {
	return s.buf[s.validStart:s.validEnd]
}

// Extract returns the first n valid bytes as a Bytes range and
// advances the valid-start past them. It panics if fewer than n valid
// bytes are available — a programming error in the caller's own framing
// logic (spec.md §7's capability/invariant-misuse class), never a
// consequence of untrusted network input, since the recv loop only calls
// Extract after confirming a complete frame is present.
func (s *Slab) Extract(n int) Bytes {
	if n > s.ValidLen() {
		panic(fmt.Sprintf("slab: extract(%d) exceeds %d valid bytes", n, s.ValidLen()))
	}
	data := s.buf[s.validStart : s.validStart+n : s.validStart+n]
	s.validStart += n
	return Bytes{ref: &ref{data: data, count: 1}}
}

// ref is the shared backing for a Bytes handle. count is set to 1 when
// the handle is made and is not updated afterwards; the backing memory is
// kept alive by the garbage collector, not by count.
type ref struct {
	data  []byte
	count int32
}

// Bytes is an immutable sub-range carved out of a Slab by
// Extract. Its backing memory is stable for as long as any reference is
// held, independent of what the originating Slab does afterward.
type Bytes struct {
	ref *ref
}

// Wrap adapts an already-independent byte slice (one never aliasing a
// Slab's own growable buffer, e.g. a freshly encoded outbound payload)
// into a Bytes handle, so the send side of a connection can queue its
// payloads on a MergeQueue.
func Wrap(data []byte) Bytes {
	return Bytes{ref: &ref{data: data, count: 1}}
}

// Data returns the bytes this handle refers to.
func (b Bytes) Data() []byte {
	return b.ref.data
}

// Len returns len(b.Data()).
func (b Bytes) Len() int {
	return len(b.ref.data)
}
