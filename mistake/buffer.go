package mistake

import "sync"

// Buffer accumulates records for the current session, in capture order.
// It lives in the context where capture happens and is emptied atomically
// at flush time. The mutex guards the read-all-then-clear pair: Drain must
// be a single uninterrupted step.
type Buffer struct {
	mu      sync.Mutex
	records []Record
}

// NewBuffer returns an empty session buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a record at the end of the buffer.
func (b *Buffer) Append(r Record) {
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

// Records returns a copy of the buffered records in insertion order.
func (b *Buffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Drain returns all buffered records and clears the buffer as one atomic
// operation. Returns nil when the buffer is empty.
func (b *Buffer) Drain() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}

// Clear discards all buffered records.
func (b *Buffer) Clear() {
	b.mu.Lock()
	b.records = nil
	b.mu.Unlock()
}

// Len returns the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Empty reports whether the buffer holds no records.
func (b *Buffer) Empty() bool {
	return b.Len() == 0
}
