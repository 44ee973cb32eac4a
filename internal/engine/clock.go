package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies wall-clock timestamps for createdAt fields.
// Implemented by SystemClock (production) and testutil.StepClock (tests).
type Clock interface {
	Now() time.Time
}

// SystemClock reads the current time in UTC.
type SystemClock struct{}

// Now returns time.Now in UTC.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Sequence is a monotonic logical counter used to order commits.
//
// Every enqueued commit is stamped with a strictly increasing number, which
// lets Flush wait for "everything enqueued so far" without a wall clock.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// Next returns the next sequence number and increments the counter.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
