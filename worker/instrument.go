package worker

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
)

// instrumentCodec wraps codec so every wire-level encode reports its
// byte count to metrics, and every encode/decode a structured event
// (with the byte count) to logger,
// under sent/recv for spec.md §6's "message send/receive, progress
// send/receive" event classes. Used for both the per-scope progress
// broadcaster and, optionally, any data channel's own codec.
func instrumentCodec[T order.PartialOrder[T], R any](codec channel.Codec[T, R], metrics *Metrics, logger logging.Logger, worker int, sent, recv logging.Kind) channel.Codec[T, R] {
	return channel.Codec[T, R]{
		Encode: func(t T, records []R, final bool) []byte {
			payload := codec.Encode(t, records, final)
			metrics.addProgressBytes(len(payload))
			logger.Log(logging.Event{Kind: sent, Worker: worker, Fields: map[string]any{"bytes": len(payload), "records": len(records)}})
			return payload
		},
		Decode: func(payload []byte) (T, []R, bool) {
			logger.Log(logging.Event{Kind: recv, Worker: worker, Fields: map[string]any{"bytes": len(payload)}})
			return codec.Decode(payload)
		},
	}
}
