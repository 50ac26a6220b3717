package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mcbarin/personal-ai-assistant/internal/config"
	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
	"github.com/mcbarin/personal-ai-assistant/pkg/retry"
)

var _ core.CalendarProvider = (*Google)(nil)

// Google creates events through the Calendar v3 REST API using a
// pre-provisioned bearer token. Transient failures are retried with
// backoff; 4xx responses are not.
type Google struct {
	client     *http.Client
	baseURL    string
	calendarID string
	token      string
	timeZone   string
	retrier    *retry.Retrier
}

func NewGoogle(cfg *config.CalendarConfig) *Google {
	return &Google{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    cfg.BaseURL,
		calendarID: cfg.CalendarID,
		token:      cfg.Token,
		timeZone:   cfg.TimeZone,
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    3,
			BackoffFactor: 2.0,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Jitter:        100 * time.Millisecond,
		}),
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type eventRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type eventResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

func (g *Google) CreateEvent(ctx context.Context, title string, start, end time.Time, description string) (core.Event, error) {
	payload := eventRequest{
		Summary:     title,
		Description: description,
		Start:       eventTime{DateTime: start.Format(time.RFC3339), TimeZone: g.timeZone},
		End:         eventTime{DateTime: end.Format(time.RFC3339), TimeZone: g.timeZone},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.Event{}, fmt.Errorf("marshal event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(g.calendarID))

	// The retrier re-runs every returned error, so permanent failures are
	// captured aside and reported as success to stop the loop.
	var created eventResponse
	var permErr error
	err = g.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+g.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			permErr = fmt.Errorf("calendar api %d: %s", resp.StatusCode, string(data))
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("calendar api %d: %s", resp.StatusCode, string(data))
		}

		if err := json.Unmarshal(data, &created); err != nil {
			permErr = fmt.Errorf("decode event: %w", err)
			return nil
		}
		return nil
	})
	if err != nil {
		return core.Event{}, err
	}
	if permErr != nil {
		return core.Event{}, permErr
	}

	log.FromCtx(ctx).Info().
		Str("event_id", created.ID).
		Str("title", title).
		Msg("calendar event created")

	return core.Event{
		Title:       title,
		Start:       start,
		End:         end,
		Description: description,
		HTMLLink:    created.HTMLLink,
	}, nil
}
