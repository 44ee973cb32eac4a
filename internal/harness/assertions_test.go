package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/engine"
	"github.com/roach88/shelfswap/internal/testutil"
)

// newAssertionContext returns an engine holding one owner (id-1) with one
// listing (id-2), signed in as the owner.
func newAssertionContext(t *testing.T) *AssertionContext {
	t.Helper()
	ctx := context.Background()

	eng, err := engine.Open(ctx, nil,
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		engine.WithSeedUsers(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close(ctx) })

	_, err = eng.Register("Olivia", "o@example.com", "pw", "", domain.RoleOwner)
	require.NoError(t, err)
	_, err = eng.AddListing(ctx, engine.NewListing{Title: "Dune"})
	require.NoError(t, err)

	return &AssertionContext{
		Engine: eng,
		Refs:   map[string]string{"olivia": "id-1", "dune": "id-2"},
	}
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	actx := newAssertionContext(t)
	result := NewResult()
	result.Events = []EventRecord{
		{Type: "listing.created"},
		{Type: "message.sent"},
		{Type: "listing.created"},
	}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertBookAvailable, Book: "$dune", Value: boolPtr(true)},
		{Type: AssertBookAvailable, Book: "id-2", Value: boolPtr(true)},
		{Type: AssertListingCount, Count: intPtr(1)},
		{Type: AssertMessageCount, Count: intPtr(0)},
		{Type: AssertUserCount, Count: intPtr(1)},
		{Type: AssertSession, User: "$olivia"},
		{Type: AssertEventCount, Event: "listing.created", Count: intPtr(2)},
		{Type: AssertEventOrder, Events: []string{"listing.created", "listing.created"}},
		{Type: AssertEventOrder, Events: []string{"message.sent", "listing.created"}},
	}, actx)

	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	actx := newAssertionContext(t)
	result := NewResult()
	result.AddTrace(TraceEvent{Step: 0, Op: OpRegister, Outcome: OutcomeOK, ID: "id-1"})
	result.Events = []EventRecord{{Type: "message.sent"}, {Type: "listing.created"}}

	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "book flag",
			assertion: Assertion{Type: AssertBookAvailable, Book: "$dune", Value: boolPtr(false)},
			want:      "Actual: available=true",
		},
		{
			name:      "missing book",
			assertion: Assertion{Type: AssertBookAvailable, Book: "nope", Value: boolPtr(true)},
			want:      "listing not found",
		},
		{
			name:      "listing count",
			assertion: Assertion{Type: AssertListingCount, Count: intPtr(3)},
			want:      "Expected: 3",
		},
		{
			name:      "no session expected",
			assertion: Assertion{Type: AssertSession},
			want:      "Actual: session user id-1",
		},
		{
			name:      "event count",
			assertion: Assertion{Type: AssertEventCount, Event: "request.accepted", Count: intPtr(1)},
			want:      "0 occurrences",
		},
		{
			name:      "event order",
			assertion: Assertion{Type: AssertEventOrder, Events: []string{"listing.created", "message.sent"}},
			want:      "message.sent missing after position 2",
		},
		{
			name:      "unknown reference",
			assertion: Assertion{Type: AssertSession, User: "$sam"},
			want:      `unknown reference "$sam"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, actx)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertListingCount,
		Expected: "1",
		Actual:   "0",
		Trace: []TraceEvent{
			{Step: 0, Op: OpRegister, Outcome: OutcomeOK},
			{Step: 1, Op: OpAddListing, Outcome: "FORBIDDEN"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: listing_count")
	assert.Contains(t, msg, "[1] add_listing -> FORBIDDEN")
}
