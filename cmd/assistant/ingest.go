package main

import (
	"github.com/spf13/cobra"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/internal/providers/rag"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Index a directory of notes into the assistant's knowledge base",
	Long:  `Walks the given directory, chunks every .md and .txt file and stores the chunks in the local vector database for question answering.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		logger := log.FromCtx(ctx)

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		appCfg := config.NewAppConfig(ctx)
		ragCfg := config.NewRAGConfig(ctx)

		embedder := rag.NewOpenAIEmbedder(ragCfg.EmbeddingAPIKey, ragCfg.EmbeddingBaseURL, ragCfg.EmbeddingModel)
		store, err := rag.NewStore(appCfg.GetVectorDBPath(), embedder)
		if err != nil {
			return err
		}

		count, err := rag.Ingest(ctx, store, args[0])
		if err != nil {
			return err
		}

		logger.Info().Int("documents", count).Msg("ingest complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
