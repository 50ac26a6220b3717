package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

// CalendarConfig points at a Google-Calendar-shaped REST API. The bearer
// token is provisioned out of band; no OAuth flow runs here.
type CalendarConfig struct {
	BaseURL    string `env:"CALENDAR_BASE_URL" envDefault:"https://www.googleapis.com/calendar/v3"`
	CalendarID string `env:"CALENDAR_ID" envDefault:"primary"`
	Token      string `env:"CALENDAR_TOKEN"`
	TimeZone   string `env:"CALENDAR_TIMEZONE" envDefault:"UTC"`
}

func NewCalendarConfig(ctx context.Context) *CalendarConfig {
	c := &CalendarConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Calendar config")
	}
	return c
}
