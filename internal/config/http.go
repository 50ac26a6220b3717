package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type HTTPConfig struct {
	Port     int    `env:"HTTP_PORT" envDefault:"8000"`
	APIToken string `env:"API_TOKEN"`
	AllowAll bool   `env:"HTTP_ALLOW_ALL_ORIGINS" envDefault:"false"`
}

func NewHTTPConfig(ctx context.Context) *HTTPConfig {
	c := &HTTPConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse HTTP config")
	}
	return c
}
