package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/internal/service/command"
)

type mockClassifier struct {
	intent core.Intent
	err    error
	calls  int
}

func (m *mockClassifier) Classify(ctx context.Context, utterance string) (core.Intent, error) {
	m.calls++
	return m.intent, m.err
}

type mockExtractor struct {
	task      core.TaskSlots
	event     core.EventSlots
	taskErr   error
	eventErr  error
	taskCalls int
}

func (m *mockExtractor) ExtractTask(ctx context.Context, utterance string, now time.Time) (core.TaskSlots, error) {
	m.taskCalls++
	return m.task, m.taskErr
}

func (m *mockExtractor) ExtractEvent(ctx context.Context, utterance string, now time.Time) (core.EventSlots, error) {
	return m.event, m.eventErr
}

type mockDispatcher struct {
	reply string
	tools []string
	err   error
	slots []core.TaskSlots
}

func (m *mockDispatcher) Dispatch(ctx context.Context, slots core.TaskSlots) (string, []string, error) {
	m.slots = append(m.slots, slots)
	return m.reply, m.tools, m.err
}

type mockCalendar struct {
	link   string
	err    error
	events []core.EventSlots
}

func (m *mockCalendar) CreateEvent(ctx context.Context, title string, start, end time.Time, description string) (core.Event, error) {
	if m.err != nil {
		return core.Event{}, m.err
	}
	m.events = append(m.events, core.EventSlots{Title: title, Start: start, End: end})
	return core.Event{Title: title, Start: start, End: end, HTMLLink: m.link}, nil
}

type mockAnswerer struct {
	reply  string
	docIDs []string
	err    error
	calls  int
}

func (m *mockAnswerer) Answer(ctx context.Context, question string) (string, []string, error) {
	m.calls++
	return m.reply, m.docIDs, m.err
}

type mockTurns struct {
	records []core.TurnRecord
	err     error
}

func (m *mockTurns) Record(ctx context.Context, rec core.TurnRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

type fixture struct {
	classifier *mockClassifier
	extractor  *mockExtractor
	tasks      *mockDispatcher
	calendar   *mockCalendar
	answerer   *mockAnswerer
	turns      *mockTurns
	assistant  *Assistant
}

var testNow = time.Date(2025, 11, 14, 15, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		classifier: &mockClassifier{intent: core.IntentQA},
		extractor:  &mockExtractor{},
		tasks:      &mockDispatcher{reply: "Created todo #1: 'x' (due: no due date).", tools: []string{"create_todo"}},
		calendar:   &mockCalendar{link: "https://calendar/evt"},
		answerer:   &mockAnswerer{reply: "an answer", docIDs: []string{"notes/a.md", "notes/b.md"}},
		turns:      &mockTurns{},
	}
	f.assistant = New(f.classifier, f.extractor, f.tasks, f.calendar, f.answerer, f.turns)
	f.assistant.nowFn = func() time.Time { return testNow }
	return f
}

func TestHandleMessage_TodoCommandSkipsClassifier(t *testing.T) {
	f := newFixture()

	res, err := f.assistant.HandleMessage(context.Background(), "todo: Buy milk | 2025-11-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.classifier.calls != 0 {
		t.Error("grammar fast path must never call the classifier")
	}
	if f.extractor.taskCalls != 0 {
		t.Error("grammar fast path must never call the extractor")
	}
	if len(f.tasks.slots) != 1 || f.tasks.slots[0].Text != "Buy milk" {
		t.Errorf("dispatched slots = %+v", f.tasks.slots)
	}
	if res.UsedTools[0] != "create_todo" {
		t.Errorf("tools = %v", res.UsedTools)
	}
}

func TestHandleMessage_EventCommand(t *testing.T) {
	f := newFixture()

	res, err := f.assistant.HandleMessage(context.Background(), "event: Coffee | 2025-11-15 09:00 | 2025-11-15 10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.classifier.calls != 0 {
		t.Error("event command must not call the classifier")
	}
	if len(f.calendar.events) != 1 || f.calendar.events[0].Title != "Coffee" {
		t.Errorf("events = %+v", f.calendar.events)
	}
	if !strings.Contains(res.Reply, "Created calendar event 'Coffee'") {
		t.Errorf("reply = %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "https://calendar/evt") {
		t.Errorf("reply missing link: %q", res.Reply)
	}
	if res.UsedTools[0] != "create_event" {
		t.Errorf("tools = %v", res.UsedTools)
	}
}

func TestHandleMessage_MalformedEventIsRejected(t *testing.T) {
	f := newFixture()

	_, err := f.assistant.HandleMessage(context.Background(), "event: Coffee | 2025-11-15 09:00")
	var verr *command.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(f.calendar.events) != 0 {
		t.Error("no event may be created for a rejected command")
	}
	if len(f.turns.records) != 0 {
		t.Error("rejected turns are not recorded")
	}
}

func TestHandleMessage_ClassifiedTodo(t *testing.T) {
	f := newFixture()
	f.classifier.intent = core.IntentTodo
	f.extractor.task = core.TaskSlots{Text: "pay rent"}

	res, err := f.assistant.HandleMessage(context.Background(), "remind me to pay rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.classifier.calls != 1 || f.extractor.taskCalls != 1 {
		t.Errorf("classifier calls = %d, extractor calls = %d", f.classifier.calls, f.extractor.taskCalls)
	}
	if len(f.tasks.slots) != 1 || f.tasks.slots[0].Text != "pay rent" {
		t.Errorf("dispatched slots = %+v", f.tasks.slots)
	}
	if res.Reply == "" {
		t.Error("empty reply")
	}
}

func TestHandleMessage_ClassifiedEventWithBadEndIsAutoCorrected(t *testing.T) {
	f := newFixture()
	f.classifier.intent = core.IntentEvent
	start := time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC)
	f.extractor.event = core.EventSlots{
		Title: "Coffee",
		Start: start,
		End:   start.Add(-time.Hour), // extraction produced end before start
	}

	_, err := f.assistant.HandleMessage(context.Background(), "coffee tomorrow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.calendar.events) != 1 {
		t.Fatal("expected event creation")
	}
	got := f.calendar.events[0]
	if !got.End.Equal(start.Add(time.Hour)) {
		t.Errorf("end = %v, want start+1h", got.End)
	}
}

func TestHandleMessage_EventExtractionFallbackStillSchedules(t *testing.T) {
	f := newFixture()
	f.classifier.intent = core.IntentEvent
	// Extractor already applied its own fallback: tomorrow, one hour long.
	f.extractor.event = core.EventSlots{
		Title: "coffee with John tomorrow",
		Start: testNow.Add(24 * time.Hour),
		End:   testNow.Add(25 * time.Hour),
	}

	res, err := f.assistant.HandleMessage(context.Background(), "coffee with John tomorrow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.calendar.events) != 1 {
		t.Fatal("expected event creation despite extraction fallback")
	}
	if !strings.Contains(res.Reply, "tomorrow") {
		t.Errorf("reply = %q", res.Reply)
	}
}

func TestHandleMessage_QAPath(t *testing.T) {
	f := newFixture()

	res, err := f.assistant.HandleMessage(context.Background(), "what did I write about Go?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.answerer.calls != 1 {
		t.Errorf("answerer calls = %d", f.answerer.calls)
	}
	if res.Reply != "an answer" {
		t.Errorf("reply = %q", res.Reply)
	}
	if len(res.RetrievedDocIDs) != 2 {
		t.Errorf("doc ids = %v", res.RetrievedDocIDs)
	}
	if len(res.UsedTools) != 0 {
		t.Errorf("QA path uses no tools, got %v", res.UsedTools)
	}
}

func TestHandleMessage_TurnIsRecorded(t *testing.T) {
	f := newFixture()

	if _, err := f.assistant.HandleMessage(context.Background(), "what did I write about Go?"); err != nil {
		t.Fatal(err)
	}
	if len(f.turns.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(f.turns.records))
	}
	rec := f.turns.records[0]
	if rec.UserMessage != "what did I write about Go?" {
		t.Errorf("user message = %q", rec.UserMessage)
	}
	if rec.RetrievedDocIDs != "notes/a.md,notes/b.md" {
		t.Errorf("doc ids = %q", rec.RetrievedDocIDs)
	}
	if rec.ToolsUsed != "" {
		t.Errorf("tools = %q", rec.ToolsUsed)
	}
}

func TestHandleMessage_LoggingFailureDoesNotAffectReply(t *testing.T) {
	f := newFixture()
	f.turns.err = errors.New("disk full")

	res, err := f.assistant.HandleMessage(context.Background(), "todo: Buy milk")
	if err != nil {
		t.Fatalf("logging failure must not fail the turn: %v", err)
	}
	if res.Reply == "" {
		t.Error("reply lost on logging failure")
	}
}

func TestHandleMessage_ClassifierTransportFailureIsFatal(t *testing.T) {
	f := newFixture()
	wantErr := errors.New("llm unreachable")
	f.classifier.err = wantErr

	_, err := f.assistant.HandleMessage(context.Background(), "hello there")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(f.turns.records) != 0 {
		t.Error("failed turns are not recorded")
	}
}

func TestHumanRange(t *testing.T) {
	now := time.Date(2025, 11, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{
			name:  "today_whole_hours",
			start: time.Date(2025, 11, 14, 15, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 11, 14, 16, 0, 0, 0, time.UTC),
			want:  "today, 3pm–4pm",
		},
		{
			name:  "tomorrow_with_minutes",
			start: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 11, 15, 10, 30, 0, 0, time.UTC),
			want:  "tomorrow, 9am–10:30am",
		},
		{
			name:  "explicit_date",
			start: time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC),
			end:   time.Date(2025, 12, 24, 19, 0, 0, 0, time.UTC),
			want:  "Dec 24, 6pm–7pm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := humanRange(now, tt.start, tt.end); got != tt.want {
				t.Errorf("humanRange() = %q, want %q", got, tt.want)
			}
		})
	}
}
