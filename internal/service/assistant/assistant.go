// Package assistant orchestrates one turn: explicit command fast path,
// intent classification, slot extraction, provider dispatch, reply
// formatting and the audit record.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/internal/service/command"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type Classifier interface {
	Classify(ctx context.Context, utterance string) (core.Intent, error)
}

type Extractor interface {
	ExtractTask(ctx context.Context, utterance string, now time.Time) (core.TaskSlots, error)
	ExtractEvent(ctx context.Context, utterance string, now time.Time) (core.EventSlots, error)
}

type TaskDispatcher interface {
	Dispatch(ctx context.Context, slots core.TaskSlots) (reply string, tools []string, err error)
}

type Assistant struct {
	classifier Classifier
	extractor  Extractor
	tasks      TaskDispatcher
	calendar   core.CalendarProvider
	answerer   core.Answerer
	turns      core.TurnsRepository

	qaTimeout time.Duration
	nowFn     func() time.Time
}

func New(
	classifier Classifier,
	extractor Extractor,
	tasks TaskDispatcher,
	calendar core.CalendarProvider,
	answerer core.Answerer,
	turns core.TurnsRepository,
) *Assistant {
	return &Assistant{
		classifier: classifier,
		extractor:  extractor,
		tasks:      tasks,
		calendar:   calendar,
		answerer:   answerer,
		turns:      turns,
		qaTimeout:  60 * time.Second,
		nowFn:      time.Now,
	}
}

// HandleMessage processes one utterance to completion. Each turn is
// independent; nothing is carried over between calls.
func (a *Assistant) HandleMessage(ctx context.Context, message string) (core.TurnResult, error) {
	trimmed := strings.TrimSpace(message)

	parsed, err := command.Parse(trimmed)
	if err != nil {
		// Malformed explicit command: rejected with its corrective message,
		// nothing is created and nothing is logged.
		return core.TurnResult{}, err
	}

	var res core.TurnResult
	if parsed != nil {
		res, err = a.handleCommand(ctx, parsed)
	} else {
		res, err = a.handleNaturalLanguage(ctx, trimmed)
	}
	if err != nil {
		return core.TurnResult{}, err
	}

	a.logTurn(ctx, message, res)
	return res, nil
}

// handleCommand dispatches slots already typed by the grammar; the
// classifier and extractor are never consulted on this path.
func (a *Assistant) handleCommand(ctx context.Context, parsed *command.Parsed) (core.TurnResult, error) {
	switch parsed.Kind {
	case command.KindTodo:
		reply, tools, err := a.tasks.Dispatch(ctx, parsed.Task)
		if err != nil {
			return core.TurnResult{}, err
		}
		return core.TurnResult{Reply: reply, UsedTools: tools}, nil
	case command.KindEvent:
		return a.createEvent(ctx, parsed.Event)
	default:
		return core.TurnResult{}, fmt.Errorf("unhandled command kind: %d", parsed.Kind)
	}
}

func (a *Assistant) handleNaturalLanguage(ctx context.Context, utterance string) (core.TurnResult, error) {
	intent, err := a.classifier.Classify(ctx, utterance)
	if err != nil {
		return core.TurnResult{}, err
	}

	now := a.nowFn().UTC()

	switch intent {
	case core.IntentTodo:
		slots, err := a.extractor.ExtractTask(ctx, utterance, now)
		if err != nil {
			return core.TurnResult{}, err
		}
		reply, tools, err := a.tasks.Dispatch(ctx, slots)
		if err != nil {
			return core.TurnResult{}, err
		}
		return core.TurnResult{Reply: reply, UsedTools: tools}, nil

	case core.IntentEvent:
		slots, err := a.extractor.ExtractEvent(ctx, utterance, now)
		if err != nil {
			return core.TurnResult{}, err
		}
		// The user never typed these instants, so a bad extraction is
		// corrected instead of rejected: the event stays schedulable.
		if !slots.End.After(slots.Start) {
			slots.End = slots.Start.Add(time.Hour)
		}
		return a.createEvent(ctx, slots)

	default:
		return a.answerQuestion(ctx, utterance)
	}
}

func (a *Assistant) createEvent(ctx context.Context, slots core.EventSlots) (core.TurnResult, error) {
	event, err := a.calendar.CreateEvent(ctx, slots.Title, slots.Start, slots.End, "")
	if err != nil {
		return core.TurnResult{}, fmt.Errorf("create calendar event: %w", err)
	}

	reply := fmt.Sprintf("Created calendar event '%s' for %s.",
		slots.Title, humanRange(a.nowFn().UTC(), slots.Start, slots.End))
	if event.HTMLLink != "" {
		reply += "\nGo to calendar event: " + event.HTMLLink
	}

	return core.TurnResult{Reply: reply, UsedTools: []string{"create_event"}}, nil
}

func (a *Assistant) answerQuestion(ctx context.Context, question string) (core.TurnResult, error) {
	qaCtx, cancel := context.WithTimeout(ctx, a.qaTimeout)
	defer cancel()

	reply, docIDs, err := a.answerer.Answer(qaCtx, question)
	if err != nil {
		return core.TurnResult{}, fmt.Errorf("answer question: %w", err)
	}
	return core.TurnResult{Reply: reply, RetrievedDocIDs: docIDs}, nil
}

// logTurn persists the audit record. A failure here is reported but never
// alters the reply already computed.
func (a *Assistant) logTurn(ctx context.Context, message string, res core.TurnResult) {
	rec := core.TurnRecord{
		UserMessage:     message,
		AssistantReply:  res.Reply,
		ToolsUsed:       strings.Join(res.UsedTools, ","),
		RetrievedDocIDs: strings.Join(res.RetrievedDocIDs, ","),
	}
	if err := a.turns.Record(ctx, rec); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to record turn")
	}
}
