// Package command implements the explicit prefixed syntaxes:
//
//	todo: <text>[ | <due>]
//	event: <title> | <start> | <end>
//
// Parsing is deterministic and never touches a language model; it is the
// first thing tried on every turn.
package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
)

const (
	todoPrefix  = "todo:"
	eventPrefix = "event:"
)

type Kind int

const (
	KindTodo Kind = iota + 1
	KindEvent
)

type Parsed struct {
	Kind  Kind
	Task  core.TaskSlots
	Event core.EventSlots
}

// ValidationError is a rejected command: the prefix matched but the body is
// malformed. The message is corrective and safe to show to the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Parse tries both command prefixes against the utterance. It returns
// (nil, nil) when neither prefix matches, so the caller can continue to
// intent classification.
func Parse(raw string) (*Parsed, error) {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, todoPrefix):
		return parseTodo(trimmed[len(todoPrefix):])
	case strings.HasPrefix(lower, eventPrefix):
		return parseEvent(trimmed[len(eventPrefix):])
	default:
		return nil, nil
	}
}

func parseTodo(body string) (*Parsed, error) {
	body = strings.TrimSpace(body)

	text := body
	var due *time.Time

	// Only the first '|' separates text from the due date.
	if idx := strings.Index(body, "|"); idx >= 0 {
		text = strings.TrimSpace(body[:idx])
		duePart := strings.TrimSpace(body[idx+1:])
		if duePart != "" {
			parsed, err := ParseDateTime(duePart)
			if err != nil {
				return nil, err
			}
			due = &parsed
		}
	}

	if text == "" {
		return nil, &ValidationError{Msg: "Todo text is empty. Use: todo: Buy milk | 2025-11-15"}
	}

	return &Parsed{Kind: KindTodo, Task: core.TaskSlots{Text: text, Due: due}}, nil
}

func parseEvent(body string) (*Parsed, error) {
	parts := strings.Split(body, "|")
	if len(parts) < 3 {
		return nil, &ValidationError{
			Msg: "Invalid event syntax. Use: event: Title | 2025-11-15 09:00 | 2025-11-15 10:00",
		}
	}

	title := strings.TrimSpace(parts[0])
	if title == "" {
		return nil, &ValidationError{Msg: "Event title is empty. Use: event: Title | <start> | <end>"}
	}

	start, err := ParseDateTime(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, err
	}
	end, err := ParseDateTime(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, err
	}

	// The user typed both instants explicitly; reordering them silently
	// would hide a typo, so reject instead.
	if !end.After(start) {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("Event end (%s) must be after its start (%s).",
				end.Format("2006-01-02 15:04"), start.Format("2006-01-02 15:04")),
		}
	}

	return &Parsed{Kind: KindEvent, Event: core.EventSlots{Title: title, Start: start, End: end}}, nil
}

var dateTimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDateTime accepts a date, or a date plus time separated by a space or
// a literal 'T'. Values are interpreted in UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{
		Msg: fmt.Sprintf("Could not parse datetime from '%s'. Use ISO format like '2025-11-14 17:30'.", value),
	}
}
