package domain

import "time"

// Role distinguishes users who list books from users who request them.
type Role string

const (
	// RoleOwner may create, toggle and delete listings.
	RoleOwner Role = "owner"

	// RoleSeeker browses listings and sends requests.
	RoleSeeker Role = "seeker"
)

// ValidRoles defines allowed user roles.
var ValidRoles = map[Role]bool{
	RoleOwner:  true,
	RoleSeeker: true,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return ValidRoles[r]
}

// User is a registered account. Users are never mutated or deleted.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`  // Unique, exact case-sensitive match
	Secret string `json:"secret"` // Compared as a plain value
	Phone  string `json:"phone"`
	Role   Role   `json:"role"`
}

// Book is a listing of a physical book offered by an owner.
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre,omitempty"`
	Location  string    `json:"location"`
	Contact   string    `json:"contact"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"ownerName"` // Copied from the owner at creation
	Available bool      `json:"available"`
	Cover     string    `json:"cover,omitempty"` // URL or data: URI
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a note from one user to another about a listing.
// Messages are never edited or deleted; only IsRead changes, false to true.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"` // Copied from the sender at send time
	ReceiverID string    `json:"receiverId"`
	BookID     string    `json:"bookId"`
	BookTitle  string    `json:"bookTitle"` // Copied from the listing at send time
	Content    string    `json:"content"`
	IsRequest  bool      `json:"isRequest"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Involves reports whether userID sent or received the message.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Partner returns the participant of m that is not userID.
func (m Message) Partner(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Conversation is a derived summary of all messages between the session
// user and one partner. It is never persisted.
type Conversation struct {
	PartnerID     string    `json:"partnerId"`
	PartnerName   string    `json:"partnerName"`
	BookID        string    `json:"bookId"`    // From the earliest message
	BookTitle     string    `json:"bookTitle"` // From the earliest message
	LastMessage   string    `json:"lastMessage"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int       `json:"unreadCount"`
}
