package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/shelfswap/internal/engine"
)

// AssertionContext carries what assertions inspect besides the result.
type AssertionContext struct {
	Engine *engine.Engine
	Refs   map[string]string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s\n", ev.Step, ev.Op, ev.Outcome)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns one message per
// failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertBookAvailable:
		return assertBookAvailable(result.Trace, a, actx)
	case AssertListingCount:
		return assertCount(result.Trace, a, len(actx.Engine.Books()))
	case AssertMessageCount:
		return assertCount(result.Trace, a, len(actx.Engine.Snapshot().Messages))
	case AssertUserCount:
		return assertCount(result.Trace, a, len(actx.Engine.Users()))
	case AssertSession:
		return assertSession(result.Trace, a, actx)
	case AssertEventCount:
		return assertEventCount(result, a)
	case AssertEventOrder:
		return assertEventOrder(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertBookAvailable checks that the listing exists and its available flag
// matches.
func assertBookAvailable(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	id, err := resolve(a.Book, actx.Refs)
	if err != nil {
		return err
	}

	book, ok := actx.Engine.Book(id)
	if !ok {
		return &AssertionError{
			Type:     AssertBookAvailable,
			Expected: fmt.Sprintf("listing %s with available=%t", id, *a.Value),
			Actual:   "listing not found",
			Trace:    trace,
		}
	}
	if book.Available != *a.Value {
		return &AssertionError{
			Type:     AssertBookAvailable,
			Expected: fmt.Sprintf("listing %s with available=%t", id, *a.Value),
			Actual:   fmt.Sprintf("available=%t", book.Available),
			Trace:    trace,
		}
	}
	return nil
}

// assertCount compares a collection size.
func assertCount(trace []TraceEvent, a Assertion, actual int) error {
	if actual != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d", *a.Count),
			Actual:   fmt.Sprintf("%d", actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertSession checks who is signed in. An empty user means nobody.
func assertSession(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	want, err := resolve(a.User, actx.Refs)
	if err != nil {
		return err
	}

	got := ""
	if u, ok := actx.Engine.CurrentUser(); ok {
		got = u.ID
	}

	if got != want {
		return &AssertionError{
			Type:     AssertSession,
			Expected: describeSession(want),
			Actual:   describeSession(got),
			Trace:    trace,
		}
	}
	return nil
}

func describeSession(id string) string {
	if id == "" {
		return "no session"
	}
	return "session user " + id
}

// assertEventCount checks that an event type was published exactly the
// specified number of times.
func assertEventCount(result *Result, a Assertion) error {
	count := 0
	for _, ev := range result.Events {
		if ev.Type == a.Event {
			count++
		}
	}

	if count != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertEventOrder checks that event types appear in the specified order.
// Other events may appear in between.
func assertEventOrder(result *Result, a Assertion) error {
	published := result.EventTypes()

	pos := 0
	for _, want := range a.Events {
		i := slices.Index(published[pos:], want)
		if i < 0 {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual:   fmt.Sprintf("%s missing after position %d in %v", want, pos, published),
				Trace:    result.Trace,
			}
		}
		pos += i + 1
	}
	return nil
}

// resolve turns a "$name" reference into the saved id. Other values are
// returned unchanged.
func resolve(value string, refs map[string]string) (string, error) {
	name, isRef := strings.CutPrefix(value, "$")
	if !isRef {
		return value, nil
	}
	id, ok := resolveRef(refs, name)
	if !ok {
		return "", fmt.Errorf("unknown reference %q", value)
	}
	return id, nil
}
