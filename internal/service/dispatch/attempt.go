package dispatch

import (
	"context"
	"fmt"

	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type Status int

const (
	StatusOK Status = iota
	StatusRetryable
	StatusFatal
)

// Outcome is the uniform result of one provider attempt.
type Outcome struct {
	Status Status
	Reply  string
	Err    error
}

// Attempt is a named provider invocation. Run must be side-effect free on
// failure so the next attempt in the chain can take over.
type Attempt struct {
	Name string
	Run  func(ctx context.Context) Outcome
}

// Result of running an attempt chain.
type Result struct {
	Reply string
	// Tool is the name of the attempt that succeeded.
	Tool string
	// Degraded is true when an earlier attempt failed before one succeeded.
	Degraded bool
}

// RunFirst executes attempts in order and stops at the first success. A
// retryable failure moves to the next attempt; a fatal failure (or an
// exhausted chain) stops everything.
func RunFirst(ctx context.Context, attempts []Attempt) (Result, error) {
	var lastErr error

	for i, a := range attempts {
		out := a.Run(ctx)
		switch out.Status {
		case StatusOK:
			return Result{Reply: out.Reply, Tool: a.Name, Degraded: i > 0}, nil
		case StatusRetryable:
			log.FromCtx(ctx).Warn().Err(out.Err).Str("attempt", a.Name).Msg("provider attempt failed, trying next")
			lastErr = out.Err
		case StatusFatal:
			return Result{}, fmt.Errorf("attempt %s: %w", a.Name, out.Err)
		}
	}

	if lastErr == nil {
		return Result{}, fmt.Errorf("no provider attempts configured")
	}
	return Result{}, fmt.Errorf("all provider attempts failed: %w", lastErr)
}
