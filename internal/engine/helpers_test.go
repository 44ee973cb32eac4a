package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/testutil"
)

// newTestEngine opens an engine with no seed users, sequential ids
// ("id-1", "id-2", ...) and a clock that advances one minute per call.
func newTestEngine(t *testing.T, opts ...Option) (*Engine, *MemoryPersister) {
	t.Helper()

	p := NewMemoryPersister()
	base := []Option{
		WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
		WithClock(testutil.NewStepClock(testutil.Epoch, time.Minute)),
		WithSeedUsers(),
	}
	e, err := Open(context.Background(), p, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.Close(context.Background())
	})
	return e, p
}

func register(t *testing.T, e *Engine, name, email string, role domain.Role) domain.User {
	t.Helper()
	u, err := e.Register(name, email, "pw-"+name, "555-"+name, role)
	require.NoError(t, err)
	return u
}

func addBook(t *testing.T, e *Engine, title, author string) domain.Book {
	t.Helper()
	b, err := e.AddListing(context.Background(), NewListing{
		Title:    title,
		Author:   author,
		Location: "Berlin",
		Contact:  "owner@example.com",
	})
	require.NoError(t, err)
	return b
}

func switchTo(t *testing.T, e *Engine, u domain.User) {
	t.Helper()
	e.Logout()
	_, err := e.Login(u.Email, u.Secret)
	require.NoError(t, err)
}

func flush(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.Flush(ctx))
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// stubCovers resolves every cover to a fixed URL, or fails with err.
type stubCovers struct {
	err error
}

func (s stubCovers) Resolve(ctx context.Context, bookID string, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://covers.example.com/" + bookID, nil
}

var errBoom = errors.New("boom")

// syncBuffer is a bytes.Buffer safe for use as a slog sink from the
// committer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func bufferLogger(buf *syncBuffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
