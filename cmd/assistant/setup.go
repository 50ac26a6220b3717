package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/internal/providers/calendar"
	"github.com/mcbarin/personal-ai-assistant/internal/providers/llm"
	"github.com/mcbarin/personal-ai-assistant/internal/providers/rag"
	"github.com/mcbarin/personal-ai-assistant/internal/providers/workspace"
	"github.com/mcbarin/personal-ai-assistant/internal/service/assistant"
	"github.com/mcbarin/personal-ai-assistant/internal/service/dispatch"
	"github.com/mcbarin/personal-ai-assistant/internal/service/intent"
	"github.com/mcbarin/personal-ai-assistant/internal/storage/sqlite"
	"github.com/mcbarin/personal-ai-assistant/internal/transport/cli"
	transporthttp "github.com/mcbarin/personal-ai-assistant/internal/transport/http"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
	"github.com/mcbarin/personal-ai-assistant/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	ragCfg := config.NewRAGConfig(ctx)
	calCfg := config.NewCalendarConfig(ctx)
	if calCfg.Token == "" {
		logger.Warn().Msg("CALENDAR_TOKEN is not set; event creation will fail until it is provided")
	}

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))

	todosRepo := sqlite.NewTodos(db)
	turnsRepo := sqlite.NewTurns(db)

	// 3. AI Provider
	aiProvider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Workspace (MCP servers)
	workspaceSvc := workspace.NewService(
		workspace.NewFileStorage(appCfg.GetWorkspaceConfigPath()),
		workspace.NewPool(),
	)
	services = append(services, workspaceSvc)

	// 5. RAG
	embedder := rag.NewOpenAIEmbedder(ragCfg.EmbeddingAPIKey, ragCfg.EmbeddingBaseURL, ragCfg.EmbeddingModel)
	store, err := rag.NewStore(appCfg.GetVectorDBPath(), embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vector store")
	}
	answerer := rag.NewAnswerer(aiProvider, store, ragCfg.TopK, ragCfg.ContextTokens)

	// 6. Turn handling
	tasks := dispatch.NewTaskDispatcher(workspaceSvc, todosRepo, dispatch.NewDefaultTimeouts())
	asst := assistant.New(
		intent.NewClassifier(aiProvider),
		intent.NewExtractor(aiProvider),
		tasks,
		calendar.NewGoogle(calCfg),
		answerer,
		turnsRepo,
	)

	// 7. Transports
	if appCfg.IsHTTPSelected() {
		httpCfg := config.NewHTTPConfig(ctx)
		services = append(services, transporthttp.NewServer(httpCfg, asst, todosRepo, turnsRepo))
	}

	if appCfg.IsCLISelected() {
		repl, err := cli.NewReadLine(asst, appCfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize cli")
		}
		services = append(services, repl)
	}

	return services
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
