package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
)

type mockWorkspace struct {
	caps    []core.Capability
	listErr error

	invokeErrs []error // consumed per call; nil entry means success
	invokeURL  string
	calls      []map[string]any
}

func (m *mockWorkspace) ListCapabilities(ctx context.Context) ([]core.Capability, error) {
	return m.caps, m.listErr
}

func (m *mockWorkspace) Invoke(ctx context.Context, name string, args map[string]any) (core.InvokeResult, error) {
	// Copy args: the dispatcher mutates its map between retries.
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	m.calls = append(m.calls, copied)

	var err error
	if len(m.invokeErrs) > 0 {
		err = m.invokeErrs[0]
		m.invokeErrs = m.invokeErrs[1:]
	}
	if err != nil {
		return core.InvokeResult{}, err
	}
	return core.InvokeResult{Text: "ok", URL: m.invokeURL}, nil
}

type mockTodos struct {
	created []core.TaskSlots
	err     error
}

func (m *mockTodos) Create(ctx context.Context, text string, due *time.Time) (core.Todo, error) {
	if m.err != nil {
		return core.Todo{}, m.err
	}
	m.created = append(m.created, core.TaskSlots{Text: text, Due: due})
	return core.Todo{ID: int64(len(m.created)), Text: text, Due: due, Status: "open"}, nil
}

func (m *mockTodos) List(ctx context.Context, status string) ([]core.Todo, error) {
	return nil, nil
}

func due(t *testing.T) *time.Time {
	t.Helper()
	d := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestTaskDispatcher_RemoteSuccess(t *testing.T) {
	ws := &mockWorkspace{
		caps:      caps("API-post-page"),
		invokeURL: "https://notion.so/abc",
	}
	d := NewTaskDispatcher(ws, &mockTodos{}, NewDefaultTimeouts())

	reply, tools, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk", Due: due(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tools) != 1 || tools[0] != "API-post-page" {
		t.Errorf("tools = %v", tools)
	}
	if !strings.Contains(reply, "https://notion.so/abc") {
		t.Errorf("reply missing link: %q", reply)
	}
	if strings.Contains(reply, "local task list") {
		t.Errorf("remote success must not be annotated as degraded: %q", reply)
	}
	if len(ws.calls) != 1 {
		t.Fatalf("expected 1 invocation, got %d", len(ws.calls))
	}
	if _, ok := ws.calls[0][dueDateField]; !ok {
		t.Error("due_date not sent on first invocation")
	}
}

func TestTaskDispatcher_UnknownFieldRetriesOnceWithoutIt(t *testing.T) {
	ws := &mockWorkspace{
		caps: caps("API-post-page"),
		invokeErrs: []error{
			&core.CapabilityError{Capability: "API-post-page", Message: "due_date is not a property of this page"},
			nil,
		},
	}
	d := NewTaskDispatcher(ws, &mockTodos{}, NewDefaultTimeouts())

	_, tools, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk", Due: due(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.calls) != 2 {
		t.Fatalf("expected exactly 2 invocations, got %d", len(ws.calls))
	}
	if _, ok := ws.calls[1][dueDateField]; ok {
		t.Error("retry must omit the rejected field")
	}
	if tools[0] != "API-post-page" {
		t.Errorf("tools = %v", tools)
	}
}

func TestTaskDispatcher_SecondFailureFallsBackNoThirdCall(t *testing.T) {
	ws := &mockWorkspace{
		caps: caps("API-post-page"),
		invokeErrs: []error{
			&core.CapabilityError{Capability: "API-post-page", Message: "unknown property due_date"},
			&core.CapabilityError{Capability: "API-post-page", Message: "validation failed"},
		},
	}
	todos := &mockTodos{}
	d := NewTaskDispatcher(ws, todos, NewDefaultTimeouts())

	reply, tools, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk", Due: due(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.calls) != 2 {
		t.Fatalf("expected exactly 2 invocations (no third), got %d", len(ws.calls))
	}
	if len(todos.created) != 1 {
		t.Fatalf("expected local fallback creation, got %d", len(todos.created))
	}
	if tools[0] != "create_todo" {
		t.Errorf("tools = %v", tools)
	}
	if !strings.Contains(reply, "local task list") {
		t.Errorf("degraded reply must say a fallback was used: %q", reply)
	}
}

func TestTaskDispatcher_OtherRemoteErrorFallsBackDirectly(t *testing.T) {
	ws := &mockWorkspace{
		caps:       caps("API-post-page"),
		invokeErrs: []error{errors.New("connection reset by peer")},
	}
	todos := &mockTodos{}
	d := NewTaskDispatcher(ws, todos, NewDefaultTimeouts())

	reply, _, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.calls) != 1 {
		t.Fatalf("a non-field error must not be retried remotely, got %d calls", len(ws.calls))
	}
	if len(todos.created) != 1 {
		t.Fatal("expected local fallback creation")
	}
	if !strings.Contains(reply, "local task list") {
		t.Errorf("degraded reply must be annotated: %q", reply)
	}
}

func TestTaskDispatcher_NoCapabilityResolvedIsSilentLocal(t *testing.T) {
	ws := &mockWorkspace{caps: caps("search", "get-page-comments")}
	todos := &mockTodos{}
	d := NewTaskDispatcher(ws, todos, NewDefaultTimeouts())

	reply, tools, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ws.calls) != 0 {
		t.Error("no invocation should happen when nothing resolves")
	}
	if tools[0] != "create_todo" {
		t.Errorf("tools = %v", tools)
	}
	if strings.Contains(reply, "local task list") {
		t.Errorf("no remote attempt was made, reply must not mention degradation: %q", reply)
	}
	if len(todos.created) != 1 {
		t.Fatal("expected local creation")
	}
}

func TestTaskDispatcher_ListingFailureIsSilentLocal(t *testing.T) {
	ws := &mockWorkspace{listErr: errors.New("server not started")}
	todos := &mockTodos{}
	d := NewTaskDispatcher(ws, todos, NewDefaultTimeouts())

	reply, _, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(reply, "local task list") {
		t.Errorf("listing failure counts as nothing discovered: %q", reply)
	}
	if len(todos.created) != 1 {
		t.Fatal("expected local creation")
	}
}

func TestTaskDispatcher_NoWorkspaceConfigured(t *testing.T) {
	todos := &mockTodos{}
	d := NewTaskDispatcher(nil, todos, NewDefaultTimeouts())

	reply, _, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Created todo #1") {
		t.Errorf("reply = %q", reply)
	}
}

func TestTaskDispatcher_LocalFailureIsFatal(t *testing.T) {
	storeErr := errors.New("database is locked")
	d := NewTaskDispatcher(nil, &mockTodos{err: storeErr}, NewDefaultTimeouts())

	_, _, err := d.Dispatch(context.Background(), core.TaskSlots{Text: "Buy milk"})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRejectedField(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unknown_property", &core.CapabilityError{Capability: "x", Message: "unknown property due_date"}, true},
		{"not_a_property", errors.New("due_date is not a property of page"), true},
		{"field_without_marker", errors.New("due_date was saved fine"), false},
		{"marker_without_field", errors.New("unknown property status"), false},
		{"transport_error", errors.New("dial tcp: i/o timeout"), false},
		{"nil_error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := rejectedField(tt.err, dueDateField)
			if got != tt.want {
				t.Errorf("rejectedField() = %v, want %v", got, tt.want)
			}
		})
	}
}
