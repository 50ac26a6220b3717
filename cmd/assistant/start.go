package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mcbarin/personal-ai-assistant/pkg/log"
	"github.com/mcbarin/personal-ai-assistant/pkg/srv"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the assistant services",
	Long:  `Initializes and starts the configured transports (HTTP API, CLI) and the workspace connections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting assistant")

		services := NewServices(ctx)

		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("assistant has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
