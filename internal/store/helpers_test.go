package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/shelfswap/internal/domain"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSnapshot builds a small snapshot with one of everything.
func createTestSnapshot() domain.Snapshot {
	owner := domain.User{ID: "u1", Name: "Ann", Email: "ann@example.com", Secret: "pw", Phone: "555", Role: domain.RoleOwner}
	seeker := domain.User{ID: "u2", Name: "Bob", Email: "bob@example.com", Secret: "pw", Phone: "556", Role: domain.RoleSeeker}
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	return domain.Snapshot{
		Users: []domain.User{owner, seeker},
		Books: []domain.Book{{
			ID: "b1", Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi",
			Location: "Berlin", Contact: "ann@example.com",
			OwnerID: owner.ID, OwnerName: owner.Name, Available: true,
			Cover: "data:image/png;base64,AAAA", CreatedAt: created,
		}},
		Messages: []domain.Message{{
			ID: "m1", SenderID: seeker.ID, SenderName: seeker.Name, ReceiverID: owner.ID,
			BookID: "b1", BookTitle: "Dune", Content: "May I?", IsRequest: true,
			CreatedAt: created.Add(time.Minute),
		}},
		Session: &seeker,
	}
}
