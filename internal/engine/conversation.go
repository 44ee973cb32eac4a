package engine

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/shelfswap/internal/domain"
)

// SendMessage records a message from the session user to receiverID about
// bookID. The listing title and sender name are copied onto the message.
//
// Fails with CodeUnauthenticated without a session, CodeBookNotFound if the
// listing does not exist and CodeUserNotFound if the receiver does not.
func (e *Engine) SendMessage(receiverID, bookID, content string, isRequest bool) (domain.Message, error) {
	const op = "send_message"

	sender, err := e.requireSession(op)
	if err != nil {
		return domain.Message{}, err
	}
	book, ok := e.Book(bookID)
	if !ok {
		return domain.Message{}, newError(op, ErrBookNotFound)
	}
	if _, ok := e.User(receiverID); !ok {
		return domain.Message{}, newError(op, ErrUserNotFound)
	}

	msg := e.newMessage(sender, receiverID, book, content, isRequest)
	e.state.Messages = append(e.state.Messages, msg)
	e.commit(op, e.messageEvent(msg))

	e.logger.Info("message sent",
		"message_id", msg.ID,
		"book_id", bookID,
		"request", isRequest,
	)
	return msg, nil
}

// AcceptRequest accepts a request received by the session user.
//
// The listing is marked unavailable and an acceptance message is sent from
// the session user to the requester. Both writes are applied before the
// change is committed, so neither is ever persisted without the other.
//
// Fails with CodeUnauthenticated without a session, CodeRequestNotFound
// unless messageID names a request whose receiver is the session user, and
// CodeBookNotFound if the listing has been deleted since the request.
func (e *Engine) AcceptRequest(messageID string) (domain.Message, error) {
	const op = "accept_request"

	accepter, err := e.requireSession(op)
	if err != nil {
		return domain.Message{}, err
	}

	i := e.messageIndex(messageID)
	if i < 0 {
		return domain.Message{}, newError(op, ErrRequestNotFound)
	}
	req := e.state.Messages[i]
	if !req.IsRequest || req.ReceiverID != accepter.ID {
		return domain.Message{}, newError(op, ErrRequestNotFound)
	}

	bi := e.bookIndex(req.BookID)
	if bi < 0 {
		return domain.Message{}, newError(op, ErrBookNotFound)
	}
	book := e.state.Books[bi]

	content := fmt.Sprintf("Your request for \"%s\" has been accepted! Contact me at %s to arrange the exchange.",
		book.Title, book.Contact)
	reply := e.newMessage(accepter, req.SenderID, book, content, false)

	e.state.Books[bi].Available = false
	e.state.Messages = append(e.state.Messages, reply)

	accepted := e.event(domain.EventRequestAccepted, accepter.ID, reply.CreatedAt)
	accepted.BookID = book.ID
	accepted.MessageID = req.ID
	accepted.TargetID = req.SenderID
	e.commit(op, accepted, e.messageEvent(reply))

	e.logger.Info("request accepted",
		"request_id", req.ID,
		"book_id", book.ID,
		"requester_id", req.SenderID,
	)
	return reply, nil
}

// MarkAsRead marks a message read if the session user received it.
// Messages addressed to someone else, missing messages and already read
// messages are left as they are.
//
// Fails with CodeUnauthenticated without a session.
func (e *Engine) MarkAsRead(messageID string) error {
	const op = "mark_as_read"

	reader, err := e.requireSession(op)
	if err != nil {
		return err
	}

	i := e.messageIndex(messageID)
	if i < 0 {
		return nil
	}
	m := &e.state.Messages[i]
	if m.ReceiverID != reader.ID || m.IsRead {
		return nil
	}

	m.IsRead = true
	e.commit(op)
	return nil
}

// UnreadCount returns how many messages addressed to the session user are
// unread. It is 0 without a session.
func (e *Engine) UnreadCount() int {
	u, ok := e.CurrentUser()
	if !ok {
		return 0
	}

	n := 0
	for _, m := range e.state.Messages {
		if m.ReceiverID == u.ID && !m.IsRead {
			n++
		}
	}
	return n
}

// conversationBuilder accumulates one partner's messages.
type conversationBuilder struct {
	conv       domain.Conversation
	lastIdx    int // Index of the most recent message, breaks timestamp ties
	incomingAt int // Index of the most recent incoming message, -1 if none
}

// Conversations summarizes the session user's messages per partner,
// most recent first. It is empty without a session.
//
// Book id and title come from the earliest message with the partner; last
// message and time from the most recent. The partner name is the sender
// name of the most recent message received from the partner, falling back
// to the registered user's name.
func (e *Engine) Conversations() []domain.Conversation {
	u, ok := e.CurrentUser()
	if !ok {
		return []domain.Conversation{}
	}

	var builders []*conversationBuilder
	byPartner := map[string]*conversationBuilder{}

	for i, m := range e.state.Messages {
		if !m.Involves(u.ID) {
			continue
		}
		partnerID := m.Partner(u.ID)

		b, seen := byPartner[partnerID]
		if !seen {
			b = &conversationBuilder{
				conv: domain.Conversation{
					PartnerID:     partnerID,
					BookID:        m.BookID,
					BookTitle:     m.BookTitle,
					LastMessage:   m.Content,
					LastMessageAt: m.CreatedAt,
				},
				lastIdx:    i,
				incomingAt: -1,
			}
			byPartner[partnerID] = b
			builders = append(builders, b)
		} else if !m.CreatedAt.Before(b.conv.LastMessageAt) {
			b.conv.LastMessage = m.Content
			b.conv.LastMessageAt = m.CreatedAt
			b.lastIdx = i
		}

		if m.ReceiverID == u.ID {
			if b.incomingAt < 0 || !m.CreatedAt.Before(e.state.Messages[b.incomingAt].CreatedAt) {
				b.conv.PartnerName = m.SenderName
				b.incomingAt = i
			}
			if !m.IsRead {
				b.conv.UnreadCount++
			}
		}
	}

	slices.SortFunc(builders, func(a, b *conversationBuilder) int {
		if c := b.conv.LastMessageAt.Compare(a.conv.LastMessageAt); c != 0 {
			return c
		}
		return cmp.Compare(b.lastIdx, a.lastIdx)
	})

	out := make([]domain.Conversation, 0, len(builders))
	for _, b := range builders {
		if b.conv.PartnerName == "" {
			if partner, ok := e.User(b.conv.PartnerID); ok {
				b.conv.PartnerName = partner.Name
			}
		}
		out = append(out, b.conv)
	}
	return out
}

// Thread returns the messages between the session user and partnerID,
// oldest first. It is empty without a session.
func (e *Engine) Thread(partnerID string) []domain.Message {
	u, ok := e.CurrentUser()
	if !ok {
		return []domain.Message{}
	}

	out := []domain.Message{}
	for _, m := range e.state.Messages {
		if m.Involves(u.ID) && m.Partner(u.ID) == partnerID {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Message returns the message with id.
func (e *Engine) Message(id string) (domain.Message, bool) {
	if i := e.messageIndex(id); i >= 0 {
		return e.state.Messages[i], true
	}
	return domain.Message{}, false
}

func (e *Engine) newMessage(sender domain.User, receiverID string, book domain.Book, content string, isRequest bool) domain.Message {
	return domain.Message{
		ID:         e.ids.Generate(),
		SenderID:   sender.ID,
		SenderName: sender.Name,
		ReceiverID: receiverID,
		BookID:     book.ID,
		BookTitle:  book.Title,
		Content:    content,
		IsRequest:  isRequest,
		CreatedAt:  e.clock.Now(),
	}
}

func (e *Engine) messageEvent(m domain.Message) domain.Event {
	ev := e.event(domain.EventMessageSent, m.SenderID, m.CreatedAt)
	ev.BookID = m.BookID
	ev.MessageID = m.ID
	ev.TargetID = m.ReceiverID
	return ev
}

func (e *Engine) messageIndex(id string) int {
	return slices.IndexFunc(e.state.Messages, func(m domain.Message) bool {
		return m.ID == id
	})
}
