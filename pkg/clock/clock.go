// Package clock implements the scalar Lamport clock that backs every entry
// of a vector clock.
//
// Three rules govern the counter:
//
//	event / send: increment by one before the step.
//	receive (entry of another replica): counter = max(own, received).
//	receive (own entry): counter = max(own+1, received).
//
// The own-entry rule forces a step: a replica cannot observe a value for its
// own entry without itself taking a causal step to observe it.
//
// Counters are int64 and saturate at math.MaxInt64 instead of wrapping, so
// the counter is non-decreasing for the lifetime of a Clock.
//
// Note: Clock is not goroutine-safe. The owning vector clock is expected to
// be driven from a single goroutine, or under the caller's lock.
package clock

import "math"

// Clock is a Lamport logical clock. The zero value is a clock at 0.
type Clock struct {
	ts int64
}

// New returns a clock starting at counter.
func New(counter int64) *Clock {
	return &Clock{ts: counter}
}

// Event records a purely local causal step. Returns the new counter.
func (c *Clock) Event() int64 {
	c.ts = inc(c.ts)
	return c.ts
}

// Send records the step taken right before transmitting. It is
// arithmetically identical to Event. Returns the new counter.
func (c *Clock) Send() int64 {
	c.ts = inc(c.ts)
	return c.ts
}

// Receive merges a received counter. When isRemote is true the entry belongs
// to another replica and the result is max(own, received). Otherwise the
// entry is the local replica's own and the result is max(own+1, received).
func (c *Clock) Receive(received int64, isRemote bool) int64 {
	own := c.ts
	if !isRemote {
		own = inc(own)
	}
	c.ts = max(own, received)
	return c.ts
}

// Count returns the current counter without advancing it.
func (c *Clock) Count() int64 { return c.ts }

func inc(v int64) int64 {
	if v == math.MaxInt64 {
		return v
	}
	return v + 1
}
