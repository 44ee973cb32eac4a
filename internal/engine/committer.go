package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/shelfswap/internal/domain"
)

// saveTimeout bounds a single Save or Publish call made by the committer.
const saveTimeout = 30 * time.Second

// committer persists snapshots and publishes events in the background.
//
// Operations enqueue a commit and return immediately; the committer's
// single goroutine drains the queue, saves the newest snapshot of the batch
// and then publishes the batch's events in order.
//
// ERROR HANDLING: Save and publish failures are logged and dropped. The
// in-memory state stays authoritative; the next successful save carries
// every earlier change because each snapshot is complete.
type committer struct {
	queue     *commitQueue
	seq       Sequence
	persister Persister
	publisher Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	done     int64         // Highest processed commit seq
	progress chan struct{} // Closed and replaced whenever done advances
	stopped  chan struct{}
}

func newCommitter(p Persister, pub Publisher, logger *slog.Logger) *committer {
	return &committer{
		queue:     newCommitQueue(),
		persister: p,
		publisher: pub,
		logger:    logger,
		progress:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Enqueue stamps and queues a commit. Returns false once the committer
// has been closed.
func (c *committer) Enqueue(snap domain.Snapshot, events []domain.Event) bool {
	return c.queue.Enqueue(commit{Seq: c.seq.Next(), Snapshot: snap, Events: events})
}

// run is the committer loop. Must be called from exactly one goroutine.
func (c *committer) run() {
	defer close(c.stopped)

	for {
		if batch := c.queue.DrainAll(); batch != nil {
			c.process(batch)
			continue
		}
		if c.queue.Done() {
			return
		}
		<-c.queue.Wait()
	}
}

func (c *committer) process(batch []commit) {
	last := batch[len(batch)-1]

	saved := true
	if c.persister != nil {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := c.persister.Save(ctx, last.Snapshot)
		cancel()
		if err != nil {
			saved = false
			c.logger.Error("save snapshot failed",
				"seq", last.Seq,
				"batch", len(batch),
				"error", err,
			)
		}
	}

	if saved && c.publisher != nil {
		for _, cm := range batch {
			for _, ev := range cm.Events {
				c.publish(cm.Seq, ev)
			}
		}
	}

	c.mu.Lock()
	c.done = last.Seq
	close(c.progress)
	c.progress = make(chan struct{})
	c.mu.Unlock()
}

func (c *committer) publish(seq int64, ev domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.logger.Error("publish event failed",
			"seq", seq,
			"event", ev.Type,
			"error", err,
		)
	}
}

// Flush blocks until every commit enqueued before the call has been
// processed, or ctx is done.
func (c *committer) Flush(ctx context.Context) error {
	target := c.seq.Current()
	for {
		c.mu.Lock()
		if c.done >= target {
			c.mu.Unlock()
			return nil
		}
		ch := c.progress
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopped:
			// Nothing further can be processed.
			return nil
		case <-ch:
		}
	}
}

// Close stops accepting commits, drains the queue and waits for the loop
// to exit or ctx to be done.
func (c *committer) Close(ctx context.Context) error {
	c.queue.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return nil
	}
}
