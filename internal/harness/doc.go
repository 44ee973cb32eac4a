// Package harness runs scripted scenarios against a real engine.
//
// A scenario is a YAML file listing engine operations, the outcome each one
// should have and assertions on the final state:
//
//	name: signed_out_message
//	description: "Messaging requires a session"
//	steps:
//	  - op: register
//	    args: { name: Olivia, email: o@example.com, secret: pw, role: owner }
//	    save_as: olivia
//	  - op: add_listing
//	    args: { title: Dune, contact: o@example.com }
//	    save_as: dune
//	  - op: logout
//	  - op: send_message
//	    args: { receiver: $olivia, book: $dune, content: "hi", request: true }
//	    expect:
//	      error: UNAUTHENTICATED
//	assertions:
//	  - type: book_available
//	    book: $dune
//	    value: true
//
// Arguments starting with "$" refer to the id produced by an earlier step
// with a matching save_as. A step without expect must succeed.
//
// # Assertion Types
//
//   - book_available: the listing exists and its available flag equals value
//   - listing_count, message_count, user_count: collection sizes
//   - session: the session user (empty user means signed out)
//   - event_count: how many events of a type were published
//   - event_order: event types appear in this relative order
//
// # Deterministic Execution
//
// Every scenario gets a fresh engine with no seed users, sequential ids
// ("id-1", "id-2", ...), a clock that advances one minute per reading and
// an in-memory notifier. Traces are therefore byte-identical across runs
// and can be compared against golden files.
package harness
