package transport

import (
	"encoding/binary"

	"github.com/bford/cofo/cbe"

	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/pointstamp"
)

// NewCBEProgressCodec builds the production wire codec for a progress
// channel's change-batch entries, using github.com/bford/cofo/cbe to
// frame each field as a length-prefixed byte string — exactly how the
// teacher's own lib/fs/verst.writeVerFile/readVerFile use cbe.Encode/
// cbe.Decode: a generic length-prefixed byte-string codec with no
// content-addressing or CAS semantics of its own, which is exactly the
// "length-prefixed encoded change-batch" wire shape spec.md §6 specifies
// for this channel. encodeTime/decodeTime serialize the scope's own
// timestamp type, the one field whose width this codec cannot fix in
// advance.
func NewCBEProgressCodec[T order.PartialOrder[T]](encodeTime func(T) []byte, decodeTime func([]byte) T) channel.Codec[order.Step, ProgressEntry[T]] {
	return channel.Codec[order.Step, ProgressEntry[T]]{
		Encode: func(seq order.Step, records []ProgressEntry[T], final bool) []byte {
			hdr := make([]byte, 17)
			binary.BigEndian.PutUint64(hdr[0:8], uint64(seq))
			if final {
				hdr[8] = 1
			}
			binary.BigEndian.PutUint64(hdr[9:17], uint64(len(records)))
			buf := cbe.Encode(nil, hdr)

			for _, r := range records {
				loc := make([]byte, 17)
				binary.BigEndian.PutUint64(loc[0:8], uint64(r.Location.Node))
				if r.Location.Output {
					loc[8] = 1
				}
				binary.BigEndian.PutUint64(loc[9:17], uint64(r.Location.Port))
				buf = cbe.Encode(buf, loc)
				buf = cbe.Encode(buf, encodeTime(r.Time))

				delta := make([]byte, 8)
				binary.BigEndian.PutUint64(delta, uint64(r.Delta))
				buf = cbe.Encode(buf, delta)
			}
			return buf
		},
		Decode: func(payload []byte) (order.Step, []ProgressEntry[T], bool) {
			hdr, rest, err := cbe.Decode(payload)
			if err != nil || len(hdr) != 17 {
				return 0, nil, false
			}
			seq := order.Step(binary.BigEndian.Uint64(hdr[0:8]))
			final := hdr[8] != 0
			count := binary.BigEndian.Uint64(hdr[9:17])

			records := make([]ProgressEntry[T], 0, count)
			for i := uint64(0); i < count; i++ {
				var locBytes, timeBytes, deltaBytes []byte
				if locBytes, rest, err = cbe.Decode(rest); err != nil || len(locBytes) != 17 {
					return 0, nil, false
				}
				if timeBytes, rest, err = cbe.Decode(rest); err != nil {
					return 0, nil, false
				}
				if deltaBytes, rest, err = cbe.Decode(rest); err != nil || len(deltaBytes) != 8 {
					return 0, nil, false
				}
				records = append(records, ProgressEntry[T]{
					Location: pointstamp.Location{
						Node:   int(binary.BigEndian.Uint64(locBytes[0:8])),
						Output: locBytes[8] != 0,
						Port:   int(binary.BigEndian.Uint64(locBytes[9:17])),
					},
					Time:  decodeTime(timeBytes),
					Delta: int64(binary.BigEndian.Uint64(deltaBytes)),
				})
			}
			return seq, records, final
		},
	}
}

// EncodeStepTime and DecodeStepTime are the encodeTime/decodeTime pair
// for a scope whose timestamp is plain order.Step, the common case
// exercised by this module's own tests.
func EncodeStepTime(t order.Step) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t))
	return b
}

func DecodeStepTime(b []byte) order.Step {
	return order.Step(binary.BigEndian.Uint64(b))
}
