package harness

// TraceEvent records the outcome of one scenario step.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"` // "ok" or an engine error code
	ID      string `json:"id,omitempty"`
	Count   *int   `json:"count,omitempty"`
}

// EventRecord is a published event without its timestamp.
type EventRecord struct {
	Type      string `json:"type"`
	ActorID   string `json:"actor_id"`
	BookID    string `json:"book_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	TargetID  string `json:"target_id,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains one entry per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Events contains everything the engine published, in order.
	Events []EventRecord `json:"events"`

	// Errors contains step and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Events: []EventRecord{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}

// EventTypes returns the published event types in order.
func (r *Result) EventTypes() []string {
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}
