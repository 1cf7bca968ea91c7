package logging

import "sync"

// DefaultBufferSize is the number of entries the explorer keeps.
const DefaultBufferSize = 100

// LogBuffer is a fixed-size ring of recent log entries.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	start   int
	count   int
}

// NewLogBuffer creates a buffer holding at most size entries.
func NewLogBuffer(size int) *LogBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &LogBuffer{entries: make([]LogEntry, size)}
}

// Add appends an entry, overwriting the oldest when full.
func (b *LogBuffer) Add(entry LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.entries)
	b.entries[(b.start+b.count)%size] = entry
	if b.count < size {
		b.count++
	} else {
		b.start = (b.start + 1) % size
	}
}

// Last returns up to n of the most recent entries, oldest first.
func (b *LogBuffer) Last(n int) []LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = max(min(n, b.count), 0)
	out := make([]LogEntry, n)
	offset := b.count - n
	for i := range out {
		out[i] = b.entries[(b.start+offset+i)%len(b.entries)]
	}
	return out
}

// Len returns the number of buffered entries.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}
