package engine

import (
	"sync"

	"github.com/roach88/shelfswap/internal/domain"
)

// commit is one unit of work for the committer: the state after a
// mutating operation plus the domain events that operation produced.
type commit struct {
	Seq      int64
	Snapshot domain.Snapshot // Deep copy; never aliased with engine state
	Events   []domain.Event
}

// commitQueue is a thread-safe FIFO queue of commits.
//
// The queue is unbounded so a mutating operation never blocks on a slow
// persistence medium or broker.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the committer loop.
type commitQueue struct {
	mu      sync.Mutex
	commits []commit
	closed  bool
	signal  chan struct{} // Signals commit availability (buffered, size 1)
}

// newCommitQueue creates an empty commit queue.
func newCommitQueue() *commitQueue {
	return &commitQueue{
		commits: make([]commit, 0, 16),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue adds a commit to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *commitQueue) Enqueue(c commit) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.commits = append(q.commits, c)

	// Non-blocking: a buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// DrainAll removes and returns every queued commit in FIFO order.
// Returns nil if the queue is empty.
func (q *commitQueue) DrainAll() []commit {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.commits) == 0 {
		return nil
	}

	out := q.commits
	q.commits = make([]commit, 0, cap(out))
	return out
}

// Wait returns a channel that signals when commits may be available.
// The channel is closed once the queue is closed.
func (q *commitQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commitQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commits)
}

// Done reports whether the queue is closed and has nothing left to drain.
func (q *commitQueue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.commits) == 0
}

// Close signals that no more commits will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *commitQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
