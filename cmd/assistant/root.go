package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Personal assistant — todos, calendar and notes over chat",
	Long: `A personal assistant that turns chat messages into todos, calendar
events and note-grounded answers. Explicit commands (todo:, event:) skip the
language model; everything else is classified and routed.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}
