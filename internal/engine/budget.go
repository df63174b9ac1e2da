package engine

import (
	"context"
	"time"
)

// checkInterval is how many nodes pass between clock reads.
const checkInterval = 128

// Budget enforces a wall-clock deadline and a node cap. Searches poll it
// cooperatively; once expired it stays expired.
type Budget struct {
	ctx       context.Context
	startTime time.Time
	deadline  time.Time // zero means no time limit
	nodeCap   uint64    // 0 means no node limit
	nodes     uint64
	expired   bool
}

// NewBudget starts a budget now. A non-positive timeCap disables the clock.
// Context cancellation counts as expiry.
func NewBudget(ctx context.Context, timeCap time.Duration, nodeCap uint64) *Budget {
	if ctx == nil {
		ctx = context.Background()
	}
	b := &Budget{
		ctx:       ctx,
		startTime: time.Now(),
		nodeCap:   nodeCap,
	}
	if timeCap > 0 {
		b.deadline = b.startTime.Add(timeCap)
	}
	if d, ok := ctx.Deadline(); ok && (b.deadline.IsZero() || d.Before(b.deadline)) {
		b.deadline = d
	}
	return b
}

// Tick counts one node and reports whether the budget is exhausted. The clock
// is only consulted every checkInterval nodes.
func (b *Budget) Tick() bool {
	if b.expired {
		return true
	}
	b.nodes++
	if b.nodeCap > 0 && b.nodes >= b.nodeCap {
		b.expired = true
		return true
	}
	if b.nodes%checkInterval == 0 {
		return b.Expired()
	}
	return false
}

// Expired reads the clock and context now.
func (b *Budget) Expired() bool {
	if b.expired {
		return true
	}
	if b.nodeCap > 0 && b.nodes >= b.nodeCap {
		b.expired = true
	} else if !b.deadline.IsZero() && !time.Now().Before(b.deadline) {
		b.expired = true
	} else if b.ctx.Err() != nil {
		b.expired = true
	}
	return b.expired
}

// Elapsed returns the time since the budget started.
func (b *Budget) Elapsed() time.Duration {
	return time.Since(b.startTime)
}

// Remaining returns the time left, or a negative duration when there is no
// deadline.
func (b *Budget) Remaining() time.Duration {
	if b.deadline.IsZero() {
		return -1
	}
	return time.Until(b.deadline)
}

// Nodes returns the number of ticks so far.
func (b *Budget) Nodes() uint64 {
	return b.nodes
}
