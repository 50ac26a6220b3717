package dispatch

import (
	"context"
	"errors"
	"testing"
)

func ok(name, reply string) Attempt {
	return Attempt{Name: name, Run: func(ctx context.Context) Outcome {
		return Outcome{Status: StatusOK, Reply: reply}
	}}
}

func failing(name string, status Status, err error) Attempt {
	return Attempt{Name: name, Run: func(ctx context.Context) Outcome {
		return Outcome{Status: status, Err: err}
	}}
}

func TestRunFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("first_success_not_degraded", func(t *testing.T) {
		res, err := RunFirst(ctx, []Attempt{ok("remote", "done"), ok("local", "unused")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Tool != "remote" || res.Reply != "done" {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.Degraded {
			t.Error("first attempt success must not be degraded")
		}
	})

	t.Run("retryable_moves_to_next_and_degrades", func(t *testing.T) {
		res, err := RunFirst(ctx, []Attempt{
			failing("remote", StatusRetryable, errors.New("boom")),
			ok("local", "saved locally"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Tool != "local" {
			t.Errorf("tool = %q, want local", res.Tool)
		}
		if !res.Degraded {
			t.Error("fallback success must be marked degraded")
		}
	})

	t.Run("fatal_stops_the_chain", func(t *testing.T) {
		fatalErr := errors.New("db gone")
		called := false
		next := Attempt{Name: "never", Run: func(ctx context.Context) Outcome {
			called = true
			return Outcome{Status: StatusOK}
		}}

		_, err := RunFirst(ctx, []Attempt{failing("local", StatusFatal, fatalErr), next})
		if !errors.Is(err, fatalErr) {
			t.Fatalf("expected fatal error, got %v", err)
		}
		if called {
			t.Error("attempts after a fatal failure must not run")
		}
	})

	t.Run("exhausted_chain_errors", func(t *testing.T) {
		lastErr := errors.New("still down")
		_, err := RunFirst(ctx, []Attempt{
			failing("a", StatusRetryable, errors.New("down")),
			failing("b", StatusRetryable, lastErr),
		})
		if !errors.Is(err, lastErr) {
			t.Fatalf("expected last error, got %v", err)
		}
	})

	t.Run("empty_chain_errors", func(t *testing.T) {
		if _, err := RunFirst(ctx, nil); err == nil {
			t.Fatal("expected error for empty chain")
		}
	})
}
