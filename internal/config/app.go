package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v9"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"ASSISTANT_RUNTIME_PATH" envDefault:".assistant"`
	LLMProvider string `env:"LLM_PROVIDER" envDefault:"ollama"`

	// Transport Flags
	EnableHTTP bool `env:"ENABLE_HTTP" envDefault:"true"`
	EnableCLI  bool `env:"ENABLE_CLI" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "assistant.db")
}

func (c AppConfig) GetVectorDBPath() string {
	return filepath.Join(c.RuntimePath, "chromem")
}

func (c AppConfig) GetWorkspaceConfigPath() string {
	return filepath.Join(c.RuntimePath, "mcp_config.json")
}

func (c AppConfig) IsHTTPSelected() bool {
	return c.EnableHTTP
}

func (c AppConfig) IsCLISelected() bool {
	return c.EnableCLI
}
