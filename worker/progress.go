package worker

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/channel"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
	"github.com/TimelyDataflow/timely-dataflow-sub000/order"
	"github.com/TimelyDataflow/timely-dataflow-sub000/transport"
)

// NewProgressSender builds the per-scope progress broadcaster of
// spec.md §4.5, instrumented with this worker's own metrics and
// logger: every encoded wire payload reports its byte count through
// Metrics.addProgressBytes and a logging.ProgressSent event, and every
// decoded one a logging.ProgressReceived event, without transport.Sender itself
// needing to know either package exists.
func (w *Worker[T, S]) NewProgressSender(address []int, codec channel.Codec[order.Step, transport.ProgressEntry[T]]) *transport.Sender[T] {
	wrapped := instrumentCodec(codec, w.metrics, w.logger, w.index, logging.ProgressSent, logging.ProgressReceived)
	return transport.NewSender[T](w.allocator, address, wrapped, w.mode)
}
