package engine

import (
	"context"
	"sync"

	"github.com/roach88/shelfswap/internal/domain"
)

// MemoryPersister keeps the saved snapshot in memory.
//
// Used by the scenario harness and by tests that need to observe what the
// committer saved.
//
// Thread-safety: MemoryPersister is safe for concurrent use.
type MemoryPersister struct {
	mu    sync.Mutex
	snap  domain.Snapshot
	saved bool
	saves int
	err   error
}

// NewMemoryPersister creates an empty persister. Load reports found=false
// until the first Save.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

// Load returns a copy of the last saved snapshot.
func (m *MemoryPersister) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return domain.Snapshot{}, false, nil
	}
	return m.snap.Clone(), true, nil
}

// Save stores a copy of snap, or returns the error set by FailWith.
func (m *MemoryPersister) Save(ctx context.Context, snap domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.snap = snap.Clone()
	m.saved = true
	m.saves++
	return nil
}

// FailWith makes every subsequent Save return err. Pass nil to recover.
func (m *MemoryPersister) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Saves returns the number of successful saves.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
