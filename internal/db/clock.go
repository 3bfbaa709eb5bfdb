package db

import (
	"sync"
	"time"
)

// SeqClock hands out strictly increasing sequence numbers derived from the
// server's wall clock. Two calls never return the same value even when the
// clock stalls or steps backwards.
type SeqClock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewSeqClock creates a clock reading time.Now
func NewSeqClock() *SeqClock {
	return &SeqClock{now: time.Now}
}

// Next returns the next sequence number and the wall time it was taken at
func (c *SeqClock) Next() (int64, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC()
	seq := t.UnixNano()
	if seq <= c.last {
		seq = c.last + 1
	}
	c.last = seq
	return seq, t
}
