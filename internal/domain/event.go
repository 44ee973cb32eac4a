package domain

import "time"

// EventType names a domain event published after a commit.
type EventType string

const (
	EventListingCreated      EventType = "listing.created"
	EventListingDeleted      EventType = "listing.deleted"
	EventAvailabilityChanged EventType = "listing.availability_changed"
	EventMessageSent         EventType = "message.sent"
	EventRequestAccepted     EventType = "request.accepted"
)

// Event describes a state change for downstream notification.
// Only identifiers are carried; consumers read details from the store.
type Event struct {
	Type      EventType `json:"type"`
	ActorID   string    `json:"actorId"`
	BookID    string    `json:"bookId,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	TargetID  string    `json:"targetId,omitempty"` // Receiving user, if any
	At        time.Time `json:"at"`
}
