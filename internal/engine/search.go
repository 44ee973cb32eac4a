package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shelfswap/internal/domain"
)

// Search returns listings whose title, author, genre or location contains
// query, ignoring case. Results keep insertion order. An empty query
// matches every listing. No session is required.
//
// Matching uses Unicode case folding on NFC-normalized text, so "STRASSE"
// matches "Straße" and precomposed and decomposed accents compare equal.
func (e *Engine) Search(query string) []domain.Book {
	caser := cases.Fold()
	needle := foldText(caser, query)

	out := []domain.Book{}
	for _, b := range e.state.Books {
		if matchesBook(caser, b, needle) {
			out = append(out, b)
		}
	}
	return out
}

func matchesBook(caser cases.Caser, b domain.Book, needle string) bool {
	for _, field := range []string{b.Title, b.Author, b.Genre, b.Location} {
		if field == "" && needle != "" {
			continue
		}
		if strings.Contains(foldText(caser, field), needle) {
			return true
		}
	}
	return false
}

func foldText(caser cases.Caser, s string) string {
	return caser.String(norm.NFC.String(s))
}
