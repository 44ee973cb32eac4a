package domain

import "slices"

// Snapshot is the complete persisted state: the four named entries
// users, books, messages and session.
type Snapshot struct {
	Users    []User    `json:"users"`
	Books    []Book    `json:"books"`
	Messages []Message `json:"messages"`
	Session  *User     `json:"session,omitempty"`
}

// Clone returns a deep copy of s. The copy shares no slices or pointers
// with s, so it may be handed to another goroutine.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Users:    slices.Clone(s.Users),
		Books:    slices.Clone(s.Books),
		Messages: slices.Clone(s.Messages),
	}
	if s.Session != nil {
		session := *s.Session
		out.Session = &session
	}
	return out
}

// DefaultSeedUsers is the fixed seed used when no snapshot exists and no
// seed is configured.
func DefaultSeedUsers() []User {
	return []User{
		{
			ID:     "seed-owner",
			Name:   "Olivia Owner",
			Email:  "owner@shelfswap.local",
			Secret: "owner123",
			Phone:  "555-0100",
			Role:   RoleOwner,
		},
		{
			ID:     "seed-seeker",
			Name:   "Sam Seeker",
			Email:  "seeker@shelfswap.local",
			Secret: "seeker123",
			Phone:  "555-0101",
			Role:   RoleSeeker,
		},
	}
}
