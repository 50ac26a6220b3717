package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

const (
	dueDateField = "due_date"

	degradationNote = "Note: the workspace provider could not be reached, so I saved this to your local task list instead."
)

// Timeouts bound every external call a task dispatch can make.
type Timeouts struct {
	List   time.Duration
	Invoke time.Duration
}

func NewDefaultTimeouts() Timeouts {
	return Timeouts{
		List:   10 * time.Second,
		Invoke: 30 * time.Second,
	}
}

// TaskDispatcher routes a task creation to the best available provider:
// a dynamically discovered workspace capability when one resolves, the
// local store otherwise (or when the remote attempt fails).
type TaskDispatcher struct {
	workspace core.WorkspaceServer // nil when no workspace is configured
	todos     core.TodosRepository
	rules     []Rule
	timeouts  Timeouts
}

func NewTaskDispatcher(workspace core.WorkspaceServer, todos core.TodosRepository, timeouts Timeouts) *TaskDispatcher {
	return &TaskDispatcher{
		workspace: workspace,
		todos:     todos,
		rules:     TaskCreationRules(),
		timeouts:  timeouts,
	}
}

// Dispatch returns the user-facing reply and the name of the tool that
// produced it. The capability set is discovered fresh on every call; a
// listing failure counts as "nothing discovered" and falls through to the
// local store silently.
func (d *TaskDispatcher) Dispatch(ctx context.Context, slots core.TaskSlots) (string, []string, error) {
	var attempts []Attempt

	if d.workspace != nil {
		if cap, ok := d.discover(ctx); ok {
			attempts = append(attempts, d.remoteAttempt(cap, slots))
		}
	}
	attempts = append(attempts, d.localAttempt(slots))

	res, err := RunFirst(ctx, attempts)
	if err != nil {
		return "", nil, err
	}

	reply := res.Reply
	if res.Degraded {
		reply = reply + "\n" + degradationNote
	}
	return reply, []string{res.Tool}, nil
}

func (d *TaskDispatcher) discover(ctx context.Context) (core.Capability, bool) {
	listCtx, cancel := context.WithTimeout(ctx, d.timeouts.List)
	defer cancel()

	caps, err := d.workspace.ListCapabilities(listCtx)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("capability discovery failed, using local store")
		return core.Capability{}, false
	}

	cap, ok := Resolve(caps, d.rules)
	if !ok {
		log.FromCtx(ctx).Debug().Int("discovered", len(caps)).Msg("no task-creation capability matched")
	}
	return cap, ok
}

func (d *TaskDispatcher) remoteAttempt(cap core.Capability, slots core.TaskSlots) Attempt {
	return Attempt{
		Name: cap.Name,
		Run: func(ctx context.Context) Outcome {
			args := map[string]any{"title": slots.Text}
			if slots.Due != nil {
				args[dueDateField] = slots.Due.Format("2006-01-02T15:04:05")
			}

			res, err := d.invoke(ctx, cap.Name, args)
			if err != nil {
				// One retry without the rejected field, never a third call.
				if field, ok := rejectedField(err, dueDateField); ok {
					if _, present := args[field]; present {
						delete(args, field)
						res, err = d.invoke(ctx, cap.Name, args)
					}
				}
			}
			if err != nil {
				return Outcome{Status: StatusRetryable, Err: err}
			}

			reply := fmt.Sprintf("Created '%s' in your workspace.", slots.Text)
			if res.URL != "" {
				reply += "\nOpen it here: " + res.URL
			}
			return Outcome{Status: StatusOK, Reply: reply}
		},
	}
}

func (d *TaskDispatcher) invoke(ctx context.Context, name string, args map[string]any) (core.InvokeResult, error) {
	invokeCtx, cancel := context.WithTimeout(ctx, d.timeouts.Invoke)
	defer cancel()
	return d.workspace.Invoke(invokeCtx, name, args)
}

func (d *TaskDispatcher) localAttempt(slots core.TaskSlots) Attempt {
	return Attempt{
		Name: "create_todo",
		Run: func(ctx context.Context) Outcome {
			todo, err := d.todos.Create(ctx, slots.Text, slots.Due)
			if err != nil {
				return Outcome{Status: StatusFatal, Err: err}
			}

			dueStr := "no due date"
			if todo.Due != nil {
				dueStr = todo.Due.Format(time.RFC3339)
			}
			return Outcome{
				Status: StatusOK,
				Reply:  fmt.Sprintf("Created todo #%d: '%s' (due: %s).", todo.ID, todo.Text, dueStr),
			}
		},
	}
}

var rejectionMarkers = []string{
	"unknown",
	"invalid",
	"unrecognized",
	"unexpected",
	"not accepted",
	"does not accept",
	"is not a property",
	"could not find",
}

// rejectedField reports whether err describes the provider refusing one of
// the named fields, as opposed to any other failure.
func rejectedField(err error, fields ...string) (string, bool) {
	if err == nil {
		return "", false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fields {
		if !strings.Contains(msg, strings.ToLower(f)) {
			continue
		}
		for _, marker := range rejectionMarkers {
			if strings.Contains(msg, marker) {
				return f, true
			}
		}
	}
	return "", false
}
