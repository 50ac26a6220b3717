package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type RAGConfig struct {
	EmbeddingModel   string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingBaseURL string `env:"EMBEDDING_BASE_URL"`
	EmbeddingAPIKey  string `env:"EMBEDDING_API_KEY"`

	TopK          int `env:"RAG_TOP_K" envDefault:"5"`
	ContextTokens int `env:"RAG_CONTEXT_TOKENS" envDefault:"2000"`
}

func NewRAGConfig(ctx context.Context) *RAGConfig {
	c := &RAGConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse RAG config")
	}
	return c
}
