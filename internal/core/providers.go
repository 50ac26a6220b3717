package core

import (
	"context"
	"fmt"
	"time"
)

type AIProvider interface {
	Chat(ctx context.Context, history []Message) (string, error)
}

// Answerer is the retrieval-augmented QA collaborator: question in,
// reply plus the ids of the supporting documents out.
type Answerer interface {
	Answer(ctx context.Context, question string) (reply string, docIDs []string, err error)
}

// WorkspaceServer exposes a dynamically discovered set of named operations.
// ListCapabilities must reflect the server's current state on every call;
// callers never cache the result across turns.
type WorkspaceServer interface {
	ListCapabilities(ctx context.Context) ([]Capability, error)
	Invoke(ctx context.Context, name string, args map[string]any) (InvokeResult, error)
}

// InvokeResult is the success envelope of a capability invocation.
type InvokeResult struct {
	Text string
	URL  string
}

// CapabilityError is the error envelope: the invocation reached the server
// but the operation itself reported failure.
type CapabilityError struct {
	Capability string
	Message    string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed: %s", e.Capability, e.Message)
}

type CalendarProvider interface {
	CreateEvent(ctx context.Context, title string, start, end time.Time, description string) (Event, error)
}
