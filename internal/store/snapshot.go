package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/shelfswap/internal/domain"
)

// Entry names.
const (
	KeyUsers    = "users"
	KeyBooks    = "books"
	KeyMessages = "messages"
	KeySession  = "session"
)

// Entry is one raw named entry as stored.
type Entry struct {
	Key       string
	Value     string // JSON
	UpdatedAt string // RFC 3339, UTC
}

// Save overwrites the stored snapshot in a single transaction.
// The session entry is deleted when snap.Session is nil.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	users, err := marshalEntry(KeyUsers, nonNil(snap.Users))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	books, err := marshalEntry(KeyBooks, nonNil(snap.Books))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	messages, err := marshalEntry(KeyMessages, nonNil(snap.Messages))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	updatedAt := s.now().Format(time.RFC3339Nano)
	for _, kv := range []struct{ key, value string }{
		{KeyUsers, users},
		{KeyBooks, books},
		{KeyMessages, messages},
	} {
		if err := upsertEntry(ctx, tx, kv.key, kv.value, updatedAt); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if snap.Session == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, KeySession); err != nil {
			return fmt.Errorf("save snapshot: clear session: %w", err)
		}
	} else {
		session, err := marshalEntry(KeySession, snap.Session)
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if err := upsertEntry(ctx, tx, KeySession, session, updatedAt); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// Load reads the stored snapshot. found is false when nothing has been
// saved yet, in which case the caller falls back to defaults.
func (s *Store) Load(ctx context.Context) (domain.Snapshot, bool, error) {
	version, err := s.SnapshotVersion(ctx)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if version != domain.SnapshotVersion {
		return domain.Snapshot{}, false, fmt.Errorf("load snapshot: unsupported snapshot version %q", version)
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if len(entries) == 0 {
		return domain.Snapshot{}, false, nil
	}

	snap := domain.Snapshot{
		Users:    []domain.User{},
		Books:    []domain.Book{},
		Messages: []domain.Message{},
	}
	for _, e := range entries {
		var target any
		switch e.Key {
		case KeyUsers:
			target = &snap.Users
		case KeyBooks:
			target = &snap.Books
		case KeyMessages:
			target = &snap.Messages
		case KeySession:
			target = &snap.Session
		default:
			continue
		}
		if err := unmarshalEntry(e, target); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
		}
	}

	return snap, true, nil
}

// Entries returns the raw stored entries ordered by key.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, updated_at
		FROM entries
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func upsertEntry(ctx context.Context, tx *sql.Tx, key, value, updatedAt string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO entries (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, updatedAt)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func marshalEntry(key string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", key, err)
	}
	return string(data), nil
}

func unmarshalEntry(e Entry, target any) error {
	if err := json.Unmarshal([]byte(e.Value), target); err != nil {
		return fmt.Errorf("unmarshal %s: %w", e.Key, err)
	}
	return nil
}

// nonNil makes a nil slice marshal as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
