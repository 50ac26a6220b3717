package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var anchor = time.Date(2025, 11, 14, 15, 30, 0, 0, time.UTC)

func TestExtractor_ExtractTask(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantText string
		wantDue  string // RFC3339, empty means nil
	}{
		{
			name:     "clean_json",
			reply:    `{"text": "Buy milk", "due": "2025-11-15T09:00:00"}`,
			wantText: "Buy milk",
			wantDue:  "2025-11-15T09:00:00Z",
		},
		{
			name:     "null_due",
			reply:    `{"text": "Buy milk", "due": null}`,
			wantText: "Buy milk",
		},
		{
			name:     "commentary_around_json",
			reply:    "Here you go:\n{\"text\": \"Pay rent\", \"due\": null}\nHope that helps!",
			wantText: "Pay rent",
		},
		{
			name:     "not_json_falls_back_to_utterance",
			reply:    "I can't produce JSON, sorry.",
			wantText: "remind me to pay rent",
		},
		{
			name:     "empty_reply_falls_back",
			reply:    "",
			wantText: "remind me to pay rent",
		},
		{
			name:     "empty_text_falls_back",
			reply:    `{"text": "", "due": null}`,
			wantText: "remind me to pay rent",
		},
		{
			name:     "unparseable_due_dropped",
			reply:    `{"text": "Pay rent", "due": "sometime soon"}`,
			wantText: "Pay rent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(&mockAI{reply: tt.reply})

			slots, err := e.ExtractTask(context.Background(), "remind me to pay rent", anchor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if slots.Text != tt.wantText {
				t.Errorf("text = %q, want %q", slots.Text, tt.wantText)
			}
			if tt.wantDue == "" {
				if slots.Due != nil {
					t.Errorf("due = %v, want nil", slots.Due)
				}
			} else {
				want, _ := time.Parse(time.RFC3339, tt.wantDue)
				if slots.Due == nil || !slots.Due.Equal(want) {
					t.Errorf("due = %v, want %v", slots.Due, want)
				}
			}
		})
	}
}

func TestExtractor_ExtractEvent(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantTitle string
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "full_slots",
			reply:     `{"title": "Coffee", "start": "2025-11-15T09:00:00", "end": "2025-11-15T10:30:00"}`,
			wantTitle: "Coffee",
			wantStart: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 11, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:      "missing_end_defaults_to_one_hour",
			reply:     `{"title": "Coffee", "start": "2025-11-15T09:00:00"}`,
			wantTitle: "Coffee",
			wantStart: time.Date(2025, 11, 15, 9, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2025, 11, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "malformed_json_schedules_tomorrow",
			reply:     "no json here",
			wantTitle: "coffee with John tomorrow",
			wantStart: anchor.Add(24 * time.Hour),
			wantEnd:   anchor.Add(25 * time.Hour),
		},
		{
			name:      "bad_start_schedules_tomorrow",
			reply:     `{"title": "Coffee", "start": "whenever"}`,
			wantTitle: "coffee with John tomorrow",
			wantStart: anchor.Add(24 * time.Hour),
			wantEnd:   anchor.Add(25 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(&mockAI{reply: tt.reply})

			slots, err := e.ExtractEvent(context.Background(), "coffee with John tomorrow", anchor)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if slots.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", slots.Title, tt.wantTitle)
			}
			if !slots.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", slots.Start, tt.wantStart)
			}
			if !slots.End.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", slots.End, tt.wantEnd)
			}
		})
	}
}

func TestExtractor_TransportErrorStillReturnsSlots(t *testing.T) {
	wantErr := errors.New("dial tcp: connection refused")
	e := NewExtractor(&mockAI{err: wantErr})

	slots, err := e.ExtractTask(context.Background(), "pay rent", anchor)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if slots.Text != "pay rent" {
		t.Errorf("fallback slots missing: %+v", slots)
	}

	evSlots, err := e.ExtractEvent(context.Background(), "coffee", anchor)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if evSlots.Title != "coffee" || !evSlots.End.Equal(evSlots.Start.Add(time.Hour)) {
		t.Errorf("fallback slots missing: %+v", evSlots)
	}
}

func TestExtractor_PromptCarriesAnchorDate(t *testing.T) {
	ai := &mockAI{reply: `{"text": "x"}`}
	e := NewExtractor(ai)

	if _, err := e.ExtractTask(context.Background(), "x", anchor); err != nil {
		t.Fatal(err)
	}
	sys := ai.last[0].Content
	if want := "2025-11-14"; !strings.Contains(sys, want) {
		t.Errorf("system prompt missing anchor date %s:\n%s", want, sys)
	}
}
