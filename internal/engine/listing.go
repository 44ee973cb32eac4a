package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/shelfswap/internal/domain"
)

// NewListing holds the caller-supplied fields of a listing.
//
// Set at most one of CoverURL and CoverData. A CoverURL is stored
// verbatim; CoverData is handed to the CoverResolver.
type NewListing struct {
	Title     string
	Author    string
	Genre     string
	Location  string
	Contact   string
	CoverURL  string
	CoverData []byte
}

var errNoCoverResolver = errors.New("no cover resolver configured")

// AddListing creates an available listing owned by the session user.
//
// Fails with CodeUnauthenticated without a session and CodeForbidden unless
// the session user is an owner.
//
// If CoverData cannot be stored, the listing is still created without a
// cover: AddListing returns the created Book together with a
// CodeCoverUploadFailed error. Use IsCoverFailure to detect this case.
func (e *Engine) AddListing(ctx context.Context, in NewListing) (domain.Book, error) {
	const op = "add_listing"

	owner, err := e.requireSession(op)
	if err != nil {
		return domain.Book{}, err
	}
	if owner.Role != domain.RoleOwner {
		return domain.Book{}, newError(op, ErrForbidden)
	}

	book := domain.Book{
		ID:        e.ids.Generate(),
		Title:     in.Title,
		Author:    in.Author,
		Genre:     in.Genre,
		Location:  in.Location,
		Contact:   in.Contact,
		OwnerID:   owner.ID,
		OwnerName: owner.Name,
		Available: true,
		CreatedAt: e.clock.Now(),
	}

	var coverErr error
	switch {
	case in.CoverURL != "":
		book.Cover = in.CoverURL
	case len(in.CoverData) > 0:
		ref, err := e.resolveCover(ctx, book.ID, in.CoverData)
		if err != nil {
			coverErr = wrapError(op, ErrCoverUploadFailed, err)
			e.logger.Warn("cover upload failed", "book_id", book.ID, "error", err)
		} else {
			book.Cover = ref
		}
	}

	e.state.Books = append(e.state.Books, book)

	ev := e.event(domain.EventListingCreated, owner.ID, book.CreatedAt)
	ev.BookID = book.ID
	e.commit(op, ev)

	e.logger.Info("listing created", "book_id", book.ID, "owner_id", owner.ID)
	return book, coverErr
}

func (e *Engine) resolveCover(ctx context.Context, bookID string, data []byte) (string, error) {
	if e.covers == nil {
		return "", errNoCoverResolver
	}
	return e.covers.Resolve(ctx, bookID, data)
}

// ToggleAvailability flips the available flag of a listing owned by the
// session user.
//
// Fails with CodeUnauthenticated without a session. A missing listing or
// one owned by someone else is silently ignored, unlike DeleteListing.
func (e *Engine) ToggleAvailability(bookID string) error {
	const op = "toggle_availability"

	owner, err := e.requireSession(op)
	if err != nil {
		return err
	}

	i := e.ownedBookIndex(bookID, owner.ID)
	if i < 0 {
		e.logger.Debug("toggle ignored", "book_id", bookID, "user_id", owner.ID)
		return nil
	}

	e.state.Books[i].Available = !e.state.Books[i].Available

	ev := e.event(domain.EventAvailabilityChanged, owner.ID, e.clock.Now())
	ev.BookID = bookID
	e.commit(op, ev)
	return nil
}

// DeleteListing removes a listing owned by the session user.
//
// Fails with CodeUnauthenticated without a session and with
// CodeNotFoundOrForbidden if the listing is missing or owned by someone
// else. Messages that reference the listing are kept.
func (e *Engine) DeleteListing(bookID string) error {
	const op = "delete_listing"

	owner, err := e.requireSession(op)
	if err != nil {
		return err
	}

	i := e.ownedBookIndex(bookID, owner.ID)
	if i < 0 {
		return newError(op, ErrNotFoundOrForbidden)
	}

	e.state.Books = slices.Delete(e.state.Books, i, i+1)

	ev := e.event(domain.EventListingDeleted, owner.ID, e.clock.Now())
	ev.BookID = bookID
	e.commit(op, ev)

	e.logger.Info("listing deleted", "book_id", bookID)
	return nil
}

// Books returns every listing in insertion order.
func (e *Engine) Books() []domain.Book {
	return append([]domain.Book{}, e.state.Books...)
}

// Book returns the listing with id.
func (e *Engine) Book(id string) (domain.Book, bool) {
	if i := e.bookIndex(id); i >= 0 {
		return e.state.Books[i], true
	}
	return domain.Book{}, false
}

// MyListings returns the session user's listings in insertion order.
func (e *Engine) MyListings() ([]domain.Book, error) {
	owner, err := e.requireSession("my_listings")
	if err != nil {
		return nil, err
	}

	out := []domain.Book{}
	for _, b := range e.state.Books {
		if b.OwnerID == owner.ID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (e *Engine) bookIndex(id string) int {
	return slices.IndexFunc(e.state.Books, func(b domain.Book) bool {
		return b.ID == id
	})
}

func (e *Engine) ownedBookIndex(id, ownerID string) int {
	return slices.IndexFunc(e.state.Books, func(b domain.Book) bool {
		return b.ID == id && b.OwnerID == ownerID
	})
}
