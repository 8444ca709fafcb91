package task

import "sync"

// outputBuffer keeps the most recent output of a terminal up to a fixed size.
// It is written by the process's output goroutine and drained by readers.
type outputBuffer struct {
	mu      sync.Mutex
	data    []byte
	limit   int
	dropped bool
}

func newOutputBuffer(limit int) *outputBuffer {
	if limit < 1 {
		limit = 1
	}
	return &outputBuffer{limit: limit}
}

func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, p...)
	if over := len(b.data) - b.limit; over > 0 {
		b.data = append(b.data[:0], b.data[over:]...)
		b.dropped = true
	}
	return len(p), nil
}

// Drain returns and clears the buffered output. The flag reports whether older
// output was discarded since the previous drain.
func (b *outputBuffer) Drain() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out, dropped := string(b.data), b.dropped
	b.data = b.data[:0]
	b.dropped = false
	return out, dropped
}
