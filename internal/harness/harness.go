package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/shelfswap/internal/cover"
	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/engine"
	"github.com/roach88/shelfswap/internal/notify"
	"github.com/roach88/shelfswap/internal/testutil"
)

// OutcomeOK is the trace outcome of a step that returned no error.
const OutcomeOK = "ok"

// maxCoverBytes bounds inline covers supplied through cover_data.
const maxCoverBytes = 64 << 10

// Harness is the scenario execution engine.
// It runs steps against a real engine with deterministic ids and clock.
type Harness struct {
	engine   *engine.Engine
	recorder *notify.Recorder
	refs     map[string]string
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory engine for isolation.
// A returned error means the scenario itself is broken (for example an
// unknown "$name" reference); step and assertion failures are reported in
// Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with engine logs written to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	ctx := context.Background()

	recorder := &notify.Recorder{}

	eng, err := engine.Open(ctx, engine.NewMemoryPersister(),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("")),
		engine.WithClock(testutil.NewStepClock(testutil.Epoch, time.Minute)),
		engine.WithCoverResolver(cover.Inline{MaxBytes: maxCoverBytes}),
		engine.WithPublisher(notify.New(recorder, "scenario")),
		engine.WithLogger(logger),
		engine.WithSeedUsers(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	defer eng.Close(ctx)

	h := &Harness{
		engine:   eng,
		recorder: recorder,
		refs:     make(map[string]string),
		logger:   logger,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	if err := eng.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush engine: %w", err)
	}
	events, err := recorder.Events()
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		result.Events = append(result.Events, EventRecord{
			Type:      string(ev.Type),
			ActorID:   ev.ActorID,
			BookID:    ev.BookID,
			MessageID: ev.MessageID,
			TargetID:  ev.TargetID,
		})
	}

	actx := &AssertionContext{
		Engine: eng,
		Refs:   h.refs,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// stepOutput is what one operation produced.
type stepOutput struct {
	id    string
	count *int
}

// executeStep runs one step, records it in the trace and checks its
// expect clause.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	a := &args{values: step.Args, refs: h.refs}
	out, opErr := h.invoke(ctx, step, a)
	if a.err != nil {
		return a.err
	}

	outcome := OutcomeOK
	if opErr != nil {
		outcome = string(engine.CodeOf(opErr))
		if outcome == "" {
			return fmt.Errorf("unexpected error: %w", opErr)
		}
	}

	result.AddTrace(TraceEvent{
		Step:    i,
		Op:      step.Op,
		Outcome: outcome,
		ID:      out.id,
		Count:   out.count,
	})

	if step.SaveAs != "" {
		if out.id == "" {
			return fmt.Errorf("save_as %q: step produced no id", step.SaveAs)
		}
		h.refs[step.SaveAs] = out.id
	}

	expected := OutcomeOK
	if step.Expect != nil && step.Expect.Error != "" {
		expected = step.Expect.Error
	}
	if outcome != expected {
		result.AddError(fmt.Sprintf("step %d (%s): expected outcome %s, got %s", i, step.Op, expected, outcome))
	}

	if step.Expect != nil && step.Expect.Count != nil {
		switch {
		case out.count == nil:
			result.AddError(fmt.Sprintf("step %d (%s): expected count %d, op returns no count", i, step.Op, *step.Expect.Count))
		case *out.count != *step.Expect.Count:
			result.AddError(fmt.Sprintf("step %d (%s): expected count %d, got %d", i, step.Op, *step.Expect.Count, *out.count))
		}
	}

	h.logger.Debug("scenario step completed",
		"step", i,
		"op", step.Op,
		"outcome", outcome,
		"id", out.id,
	)
	return nil
}

// invoke dispatches step to the engine and returns the engine's error for
// the operation. Malformed arguments are reported through a.err.
func (h *Harness) invoke(ctx context.Context, step Step, a *args) (stepOutput, error) {
	eng := h.engine

	switch step.Op {
	case OpRegister:
		u, err := eng.Register(a.str("name"), a.str("email"), a.str("secret"), a.str("phone"), domain.Role(a.str("role")))
		return stepOutput{id: u.ID}, err

	case OpLogin:
		u, err := eng.Login(a.str("email"), a.str("secret"))
		return stepOutput{id: u.ID}, err

	case OpLogout:
		eng.Logout()
		return stepOutput{}, nil

	case OpAddListing:
		in := engine.NewListing{
			Title:    a.str("title"),
			Author:   a.str("author"),
			Genre:    a.str("genre"),
			Location: a.str("location"),
			Contact:  a.str("contact"),
			CoverURL: a.str("cover_url"),
		}
		if data := a.str("cover_data"); data != "" {
			in.CoverData = []byte(data)
		}
		b, err := eng.AddListing(ctx, in)
		return stepOutput{id: b.ID}, err

	case OpToggle:
		return stepOutput{}, eng.ToggleAvailability(a.str("book"))

	case OpDeleteListing:
		return stepOutput{}, eng.DeleteListing(a.str("book"))

	case OpMyListings:
		books, err := eng.MyListings()
		if err != nil {
			return stepOutput{}, err
		}
		return counted(len(books)), nil

	case OpSearch:
		return counted(len(eng.Search(a.str("query")))), nil

	case OpSendMessage:
		m, err := eng.SendMessage(a.str("receiver"), a.str("book"), a.str("content"), a.boolean("request"))
		return stepOutput{id: m.ID}, err

	case OpAcceptRequest:
		reply, err := eng.AcceptRequest(a.str("message"))
		return stepOutput{id: reply.ID}, err

	case OpMarkAsRead:
		return stepOutput{}, eng.MarkAsRead(a.str("message"))

	case OpUnreadCount:
		return counted(eng.UnreadCount()), nil

	case OpConversations:
		return counted(len(eng.Conversations())), nil

	case OpThread:
		return counted(len(eng.Thread(a.str("partner")))), nil
	}

	a.err = fmt.Errorf("unknown op %q", step.Op)
	return stepOutput{}, nil
}

func counted(n int) stepOutput {
	return stepOutput{count: &n}
}

// args reads step arguments, resolving "$name" references. The first
// problem is kept in err so call sites stay linear.
type args struct {
	values map[string]any
	refs   map[string]string
	err    error
}

func (a *args) str(key string) string {
	v, ok := a.values[key]
	if !ok || v == nil {
		return ""
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}

	if name, isRef := strings.CutPrefix(s, "$"); isRef {
		id, found := resolveRef(a.refs, name)
		if !found && a.err == nil {
			a.err = fmt.Errorf("arg %q: unknown reference %q", key, s)
		}
		return id
	}
	return s
}

func (a *args) boolean(key string) bool {
	v, ok := a.values[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok && a.err == nil {
		a.err = fmt.Errorf("arg %q: expected bool, got %T", key, v)
	}
	return b
}

func resolveRef(refs map[string]string, name string) (string, bool) {
	id, ok := refs[name]
	return id, ok
}
