// Package engine implements the shelfswap domain state engine.
//
// The engine is the authoritative in-process model of the marketplace: it
// owns users, book listings, messages and the single active session,
// enforces authorization and availability invariants, and runs the
// request/accept workflow that reserves a book while notifying the
// requester.
//
// ARCHITECTURE:
//
// Components (leaves first):
//   - Identity Store (identity.go): registration, login, the session
//   - Listing Store (listing.go, search.go): listings owned by owners
//   - Conversation Engine (conversation.go): messages, inbox, accept
//
// Commit Flow:
//  1. An operation validates against the in-memory snapshot
//  2. On success it mutates the snapshot and enqueues a deep copy plus
//     the domain events it produced (queue.go)
//  3. The committer goroutine saves the newest snapshot through the
//     Persister, then publishes the events (committer.go)
//
// Persistence is fire-and-forget: Save failures are logged and the
// in-memory state stays authoritative. Flush and Close wait for the queue
// to drain.
//
// ERRORS:
//
// Rejections are *Error values with an ErrorCode. Use errors.Is against the
// Err* sentinels or CodeOf to classify them.
package engine
