package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/shelfswap/internal/domain"
)

// Persister loads and saves the complete snapshot.
// Implemented by store.Store (SQLite) and MemoryPersister (tests, harness).
type Persister interface {
	// Load returns the saved snapshot. found is false when nothing has
	// been saved yet.
	Load(ctx context.Context) (snap domain.Snapshot, found bool, err error)

	// Save overwrites the saved snapshot.
	Save(ctx context.Context, snap domain.Snapshot) error
}

// CoverResolver turns uploaded cover bytes into a storable reference
// (a URL or a data: URI). Implemented by the cover package.
type CoverResolver interface {
	Resolve(ctx context.Context, bookID string, data []byte) (string, error)
}

// Publisher delivers domain events after they are committed.
// Implemented by the notify package.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Engine owns users, listings, messages and the session.
//
// Every operation validates synchronously, mutates the in-memory snapshot,
// hands a deep copy to the committer and returns. Persistence is
// fire-and-forget: a failed save is logged, never returned.
//
// Thread-safety model:
//   - Operations: must be called from one goroutine at a time
//   - The committer goroutine only ever sees deep copies of state
//
// INVARIANTS:
//   - User emails are unique
//   - Every listing's owner exists and has role owner
//   - Message.IsRead only changes false to true, by the receiver
//   - Failed operations leave state unchanged
type Engine struct {
	state     domain.Snapshot
	ids       IDGenerator
	clock     Clock
	covers    CoverResolver
	publisher Publisher
	persister Persister
	logger    *slog.Logger
	seedUsers []domain.User
	committer *committer
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the identifier source (default: UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithClock sets the timestamp source (default: SystemClock).
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithCoverResolver sets how uploaded covers are stored. Without one,
// every binary cover upload fails with CodeCoverUploadFailed.
func WithCoverResolver(r CoverResolver) Option {
	return func(e *Engine) {
		e.covers = r
	}
}

// WithPublisher sets where committed events are delivered.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}

// WithLogger sets the logger (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSeedUsers sets the users present when no snapshot has been saved
// (default: domain.DefaultSeedUsers). Pass no users for an empty start.
func WithSeedUsers(users ...domain.User) Option {
	return func(e *Engine) {
		e.seedUsers = append([]domain.User{}, users...)
	}
}

// Open loads the saved snapshot from p, or starts from defaults (the seed
// users, no listings, no messages, no session) when none exists, and
// starts the background committer.
//
// A nil Persister keeps state in memory only.
//
// Callers must Close the engine to flush pending commits.
func Open(ctx context.Context, p Persister, opts ...Option) (*Engine, error) {
	e := &Engine{
		ids:       UUIDv7Generator{},
		clock:     SystemClock{},
		persister: p,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		seedUsers: domain.DefaultSeedUsers(),
	}

	for _, opt := range opts {
		opt(e)
	}

	found := false
	if p != nil {
		snap, ok, err := p.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			e.state = snap.Clone()
			found = true
		}
	}
	if !found {
		e.state = domain.Snapshot{
			Users:    append([]domain.User{}, e.seedUsers...),
			Books:    []domain.Book{},
			Messages: []domain.Message{},
		}
	}

	e.committer = newCommitter(p, e.publisher, e.logger)
	go e.committer.run()

	e.logger.Debug("engine opened",
		"restored", found,
		"users", len(e.state.Users),
		"books", len(e.state.Books),
		"messages", len(e.state.Messages),
	)

	return e, nil
}

// Flush blocks until every change made so far has been handed to the
// Persister and Publisher.
func (e *Engine) Flush(ctx context.Context) error {
	return e.committer.Flush(ctx)
}

// Close flushes pending commits and stops the committer. The engine must
// not be used afterwards.
func (e *Engine) Close(ctx context.Context) error {
	return e.committer.Close(ctx)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() domain.Snapshot {
	return e.state.Clone()
}

// commit hands the current state and events to the committer.
func (e *Engine) commit(op string, events ...domain.Event) {
	if !e.committer.Enqueue(e.state.Clone(), events) {
		e.logger.Warn("commit after close dropped", "op", op)
	}
}

func (e *Engine) event(t domain.EventType, actorID string, at time.Time) domain.Event {
	return domain.Event{Type: t, ActorID: actorID, At: at}
}
