// Package transport implements spec.md §4.9's wire transport: one send
// thread and one recv thread per remote peer, framing channel payloads
// over already-connected TCP sockets, plus the per-scope progress
// broadcaster of spec.md §4.5 and its replay-diagnostics log.
//
// Grounded on tlc/minnet/node.go's peer{wr,rd,bwr,brd,enc,dec} scaffolding
// (adapted from in-process io.Pipe loopback to real net.Conn sockets) and
// stack/logging/layer.go's step-indexed, Obsolete()-garbage-collected log
// shape, generalized here from a flat TLC step counter to an arbitrary
// partially ordered timestamp.
package transport

import "encoding/binary"

// HeaderSize is the fixed on-wire size of a Header: five little-endian
// u64 fields, per spec.md §6's "Wire format (data channels)".
const HeaderSize = 5 * 8

// Header is spec.md §4.9's fixed frame header. A Length of zero is the
// sentinel marking orderly end of stream.
type Header struct {
	Channel uint64
	Source  uint64
	Target  uint64
	Length  uint64
	Seqno   uint64
}

// Encode writes h into a fresh HeaderSize-byte slice.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], h.Channel)
	binary.LittleEndian.PutUint64(buf[8:16], h.Source)
	binary.LittleEndian.PutUint64(buf[16:24], h.Target)
	binary.LittleEndian.PutUint64(buf[24:32], h.Length)
	binary.LittleEndian.PutUint64(buf[32:40], h.Seqno)
	return buf
}

// DecodeHeader reads a Header from the first HeaderSize bytes of b.
func DecodeHeader(b []byte) Header {
	return Header{
		Channel: binary.LittleEndian.Uint64(b[0:8]),
		Source:  binary.LittleEndian.Uint64(b[8:16]),
		Target:  binary.LittleEndian.Uint64(b[16:24]),
		Length:  binary.LittleEndian.Uint64(b[24:32]),
		Seqno:   binary.LittleEndian.Uint64(b[32:40]),
	}
}

// EndOfStream reports whether h is the zero-length end-of-stream
// sentinel frame.
func (h Header) EndOfStream() bool {
	return h.Length == 0
}
