package channel

// Codec converts a channel message to and from the opaque bytes that
// cross a process boundary over package transport's wire frames —
// spec.md §6's "serialization surface on containers for cross-process
// transport." Pipeline pacts never need one, since they never leave the
// worker; Exchange and Broadcast pacts require one for every
// destination that isn't this worker itself.
type Codec[T any, R any] struct {
	Encode func(t T, records []R, final bool) []byte
	Decode func(payload []byte) (t T, records []R, final bool)
}
