package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted run against a fresh engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps are executed in order against one engine.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and published events.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step invokes one engine operation.
type Step struct {
	// Op is the operation name (e.g., "add_listing").
	Op string `yaml:"op"`

	// Args holds the operation arguments. String values starting with "$"
	// are replaced by the id saved under that name.
	Args map[string]any `yaml:"args,omitempty"`

	// SaveAs stores the id produced by this step for later "$name" use.
	SaveAs string `yaml:"save_as,omitempty"`

	// Expect describes the expected outcome. Nil means the step must
	// succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected engine error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Count is the expected result size for query operations.
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates final state or published events.
type Assertion struct {
	// Type selects the assertion (see the Assert* constants).
	Type string `yaml:"type"`

	// Book is the listing id or "$name" reference (book_available).
	Book string `yaml:"book,omitempty"`

	// User is the expected session user id or "$name" reference (session).
	User string `yaml:"user,omitempty"`

	// Value is the expected available flag (book_available).
	Value *bool `yaml:"value,omitempty"`

	// Count is the expected size (listing_count, message_count,
	// user_count, event_count).
	Count *int `yaml:"count,omitempty"`

	// Event is the event type to count (event_count).
	Event string `yaml:"event,omitempty"`

	// Events is the expected relative order of event types (event_order).
	Events []string `yaml:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertBookAvailable = "book_available"
	AssertListingCount  = "listing_count"
	AssertMessageCount  = "message_count"
	AssertUserCount     = "user_count"
	AssertSession       = "session"
	AssertEventCount    = "event_count"
	AssertEventOrder    = "event_order"
)

// Operation names accepted in Step.Op.
const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpLogout         = "logout"
	OpAddListing     = "add_listing"
	OpToggle         = "toggle_availability"
	OpDeleteListing  = "delete_listing"
	OpMyListings     = "my_listings"
	OpSearch         = "search"
	OpSendMessage    = "send_message"
	OpAcceptRequest  = "accept_request"
	OpMarkAsRead     = "mark_as_read"
	OpUnreadCount    = "unread_count"
	OpConversations  = "conversations"
	OpThread         = "thread"
)

var knownOps = map[string]bool{
	OpRegister:      true,
	OpLogin:         true,
	OpLogout:        true,
	OpAddListing:    true,
	OpToggle:        true,
	OpDeleteListing: true,
	OpMyListings:    true,
	OpSearch:        true,
	OpSendMessage:   true,
	OpAcceptRequest: true,
	OpMarkAsRead:    true,
	OpUnreadCount:   true,
	OpConversations: true,
	OpThread:        true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	saved := make(map[string]bool)
	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.SaveAs != "" {
			if saved[step.SaveAs] {
				return fmt.Errorf("steps[%d]: save_as %q already used", i, step.SaveAs)
			}
			saved[step.SaveAs] = true
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBookAvailable:
		if a.Book == "" {
			return fmt.Errorf("assertions[%d]: book is required for book_available", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for book_available", index)
		}
	case AssertListingCount, AssertMessageCount, AssertUserCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertSession:
		// An empty user asserts that nobody is signed in.
	case AssertEventCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for event_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	case AssertEventOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for event_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
