package logging

import (
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ZerologSink is the default Logger, emitting each Event as one
// structured zerolog line.
type ZerologSink struct {
	log zerolog.Logger
}

// NewZerologSink returns a Logger writing to w, one JSON line per Event.
func NewZerologSink(w io.Writer) *ZerologSink {
	return &ZerologSink{log: zerolog.New(w).With().Timestamp().Logger()}
}

func addressString(addr []int) string {
	parts := make([]string, len(addr))
	for i, v := range addr {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ".")
}

func (s *ZerologSink) Log(e Event) {
	ev := s.log.Info().Str("event", e.Kind.String()).Int("worker", e.Worker)
	if e.Address != nil {
		ev = ev.Str("address", addressString(e.Address))
	}
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(e.Kind.String())
}
