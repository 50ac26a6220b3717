// Package intent holds the two language-model contracts of a turn:
// classifying the utterance and extracting slots for the chosen intent.
package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
)

const classifierPrompt = `You are an intent classifier for a personal assistant.
Given a single user message, decide if the primary intent is:
- TODO: creating or updating a personal todo/reminder/task.
- EVENT: scheduling or modifying a calendar event/meeting.
- QA: asking a question or chatting (no tool call).
Reply with exactly one word: TODO, EVENT, or QA.`

type Classifier struct {
	ai core.AIProvider
}

func NewClassifier(ai core.AIProvider) *Classifier {
	return &Classifier{ai: ai}
}

// Classify is total over model output: any reply whose first token is not a
// known intent collapses to QA. Only a transport failure of the chat
// collaborator is returned as an error.
func (c *Classifier) Classify(ctx context.Context, utterance string) (core.Intent, error) {
	raw, err := c.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: classifierPrompt},
		{Role: core.RoleUser, Content: utterance},
	})
	if err != nil {
		return "", fmt.Errorf("classify intent: %w", err)
	}

	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(raw)))
	if len(fields) == 0 {
		return core.IntentQA, nil
	}

	switch core.Intent(fields[0]) {
	case core.IntentTodo:
		return core.IntentTodo, nil
	case core.IntentEvent:
		return core.IntentEvent, nil
	case core.IntentQA:
		return core.IntentQA, nil
	default:
		return core.IntentQA, nil
	}
}
