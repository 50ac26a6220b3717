package intent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/jsonx"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

const taskPrompt = `You extract todo information from natural language.
Given one user message, output ONLY a JSON object with keys:
{ "text": string, "due": string | null }.
- 'due' should be an ISO 8601 datetime (e.g. 2025-11-15T09:00:00) or null.
- Today is %s. Interpret relative dates like 'today', 'tomorrow', or weekdays relative to this date.
- Only an explicit deadline phrase ("by Friday", "due tomorrow") maps to 'due'.
  Dates and times that belong to the task's subject ("check in for the 9am flight")
  stay inside 'text' and 'due' is null.
Do not include any explanation text, only the JSON.`

const eventPrompt = `You extract calendar event details from natural language.
Given one user message, output ONLY a JSON object with keys:
{ "title": string, "start": string, "end": string }.
- 'start' and 'end' must be full ISO 8601 datetimes (e.g. 2025-11-15T09:00:00).
- Today is %s. Interpret relative dates like 'today', 'tomorrow', or weekdays relative to this date.
- Assume the user means their local timezone; do not add a timezone suffix.
- If the user does not specify an end time, set 'end' to exactly 1 hour after 'start'.
Do not include any explanation text, only the JSON.`

type Extractor struct {
	ai core.AIProvider
}

func NewExtractor(ai core.AIProvider) *Extractor {
	return &Extractor{ai: ai}
}

// ExtractTask never fails on model output: anything unparseable falls back
// to the raw utterance with no due date. The now anchor keeps relative
// dates consistent across retries within a turn.
func (e *Extractor) ExtractTask(ctx context.Context, utterance string, now time.Time) (core.TaskSlots, error) {
	fallback := core.TaskSlots{Text: strings.TrimSpace(utterance)}

	raw, err := e.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: fmt.Sprintf(taskPrompt, now.Format("2006-01-02"))},
		{Role: core.RoleUser, Content: utterance},
	})
	if err != nil {
		return fallback, fmt.Errorf("extract task slots: %w", err)
	}

	var decoded struct {
		Text string  `json:"text"`
		Due  *string `json:"due"`
	}
	if err := jsonx.DecodeObject(raw, &decoded); err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("task extraction fell back to raw utterance")
		return fallback, nil
	}

	slots := core.TaskSlots{Text: strings.TrimSpace(decoded.Text)}
	if slots.Text == "" {
		slots.Text = fallback.Text
	}
	if decoded.Due != nil {
		if due, err := parseISO(*decoded.Due); err == nil {
			slots.Due = &due
		}
	}
	return slots, nil
}

// ExtractEvent never fails on model output either: total extraction failure
// still yields a schedulable one-hour event starting a day from now.
func (e *Extractor) ExtractEvent(ctx context.Context, utterance string, now time.Time) (core.EventSlots, error) {
	fallback := core.EventSlots{
		Title: strings.TrimSpace(utterance),
		Start: now.Add(24 * time.Hour),
		End:   now.Add(25 * time.Hour),
	}

	raw, err := e.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: fmt.Sprintf(eventPrompt, now.Format("2006-01-02"))},
		{Role: core.RoleUser, Content: utterance},
	})
	if err != nil {
		return fallback, fmt.Errorf("extract event slots: %w", err)
	}

	var decoded struct {
		Title string  `json:"title"`
		Start string  `json:"start"`
		End   *string `json:"end"`
	}
	if err := jsonx.DecodeObject(raw, &decoded); err != nil {
		log.FromCtx(ctx).Debug().Err(err).Msg("event extraction fell back to defaults")
		return fallback, nil
	}

	title := strings.TrimSpace(decoded.Title)
	start, err := parseISO(decoded.Start)
	if title == "" || err != nil {
		return fallback, nil
	}

	end := start.Add(time.Hour)
	if decoded.End != nil {
		if parsed, err := parseISO(*decoded.End); err == nil {
			end = parsed
		}
	}

	return core.EventSlots{Title: title, Start: start, End: end}, nil
}

var isoLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

func parseISO(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable datetime: %q", value)
}
