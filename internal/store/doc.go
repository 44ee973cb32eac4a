// Package store provides SQLite-backed persistence for shelfswap snapshots.
//
// The store is a key-value snapshot medium, not a query engine. A snapshot
// is kept as four named entries in the entries table:
//   - users: JSON array of domain.User
//   - books: JSON array of domain.Book, in insertion order
//   - messages: JSON array of domain.Message, in insertion order
//   - session: JSON domain.User; the row is absent when nobody is logged in
//
// Save overwrites all entries in one transaction, so a reader never sees
// books from one save and messages from another.
//
// Connections run in WAL mode with synchronous=NORMAL and a 5 second busy
// timeout. Schema changes are ordered migrations keyed by PRAGMA
// user_version; each runs in its own transaction.
package store
