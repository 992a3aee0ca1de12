package channel

// Batch is the container type spec.md §6 requires of records crossing a
// channel: record_count and is_empty. A plain slice already has
// everything needed; Batch just hangs the two accounting methods off it.
type Batch[R any] []R

func (b Batch[R]) RecordCount() int64 { return int64(len(b)) }
func (b Batch[R]) IsEmpty() bool      { return len(b) == 0 }

// PartitionedBatch implements operator.Partitionable[R]: it is the
// Exchange pact's per-tick accumulation buffer, holding one slot of
// records per destination peer. Grounded directly on spec.md §6's
// push_partitioned primitive.
type PartitionedBatch[R any] struct {
	slots [][]R
}

// NewPartitionedBatch returns an empty buffer with one slot per peer.
func NewPartitionedBatch[R any](peers int) *PartitionedBatch[R] {
	return &PartitionedBatch[R]{slots: make([][]R, peers)}
}

func (p *PartitionedBatch[R]) RecordCount() int64 {
	var n int64
	for _, s := range p.slots {
		n += int64(len(s))
	}
	return n
}

func (p *PartitionedBatch[R]) IsEmpty() bool {
	return p.RecordCount() == 0
}

// PushPartitioned assigns each of records to the slot dest names,
// appending to whatever that slot already holds.
func (p *PartitionedBatch[R]) PushPartitioned(records []R, dest func(R) int) {
	for _, r := range records {
		d := dest(r)
		p.slots[d] = append(p.slots[d], r)
	}
}

// Slot returns destination i's currently accumulated records.
func (p *PartitionedBatch[R]) Slot(i int) []R {
	return p.slots[i]
}

// ClearSlot empties destination i's accumulated records after a flush.
func (p *PartitionedBatch[R]) ClearSlot(i int) {
	p.slots[i] = nil
}
