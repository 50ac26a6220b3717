package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/internal/service/command"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

// Assistant handles one user utterance end to end.
type Assistant interface {
	HandleMessage(ctx context.Context, message string) (core.TurnResult, error)
}

type ReadLine struct {
	cfg       *config.AppConfig
	assistant Assistant
	rl        *readline.Instance
}

func NewReadLine(assistant Assistant, cfg *config.AppConfig) (*ReadLine, error) {
	// Ensure runtime directory exists
	if err := os.MkdirAll(cfg.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(cfg.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		cfg:       cfg,
		assistant: assistant,
		rl:        rl,
	}, nil
}

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("assistant chat started. Type 'exit' to quit.")

	for {
		// Check context before blocking read
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil // Exit on Ctrl+C
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "exit" {
			return nil
		}
		if line == "" {
			continue
		}

		result, err := r.assistant.HandleMessage(ctx, line)
		if err != nil {
			// A rejected command reads back as guidance, not as a failure.
			var ve *command.ValidationError
			if errors.As(err, &ve) {
				fmt.Fprintf(r.rl.Stdout(), "%s\n", ve.Error())
				continue
			}

			logger.Error().Err(err).Msg("message handling failed")
			fmt.Fprintf(r.rl.Stdout(), "Error: %v\n", err)
			continue
		}

		fmt.Fprintf(r.rl.Stdout(), "%s\n", result.Reply)
		if len(result.UsedTools) > 0 {
			fmt.Fprintf(r.rl.Stdout(), "[tools: %s]\n", strings.Join(result.UsedTools, ", "))
		}
	}
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
