package executor

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/docker/go-units"

	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

// collector keeps the head of one process stream up to a byte budget. The
// first sampleSize bytes are sniffed; binary output is counted but not kept,
// so results always serialise as text.
type collector struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	sample    int
	sniffed   int
	total     int64
	binary    bool
	truncated bool
}

func newCollector(limit, sampleSize int) *collector {
	return &collector{limit: limit, sample: sampleSize}
}

// Write never fails, so a chatty child is never blocked by a full budget.
func (c *collector) Write(p []byte) (int, error) {
	n := len(p)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total += int64(n)

	if c.binary {
		return n, nil
	}
	if c.sniffed < c.sample {
		head := p[:min(n, c.sample-c.sniffed)]
		if content.IsBinaryContent(head) {
			c.binary = true
			c.truncated = true
			c.buf.Reset()
			return n, nil
		}
		c.sniffed += len(head)
	}

	room := max(c.limit-c.buf.Len(), 0)
	if n > room {
		c.truncated = true
		p = p[:room]
	}
	c.buf.Write(p)
	return n, nil
}

// String returns the captured text. Invalid UTF-8 is replaced so the value can
// be carried in a JSON string unchanged; binary output becomes a placeholder.
func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.binary {
		return fmt.Sprintf("[binary output, %s]", units.HumanSize(float64(c.total)))
	}
	return strings.ToValidUTF8(c.buf.String(), "\uFFFD")
}

func (c *collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
