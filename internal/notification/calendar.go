package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"rooftrack_backend/platform/config"
)

// CalendarEvent is the payload posted to the calendar-sync webhook.
type CalendarEvent struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"startTime"`
}

// CalendarClient posts appointment events to an external calendar webhook.
// The webhook is a one-way sync: delivery is best-effort and callers must
// never treat a failure here as fatal.
type CalendarClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewCalendarClient creates a client for the configured webhook. When no
// webhook URL is configured the client is disabled and PushEvent is a no-op.
func NewCalendarClient(cfg config.CalendarConfig) *CalendarClient {
	return &CalendarClient{
		webhookURL: cfg.GetCalendarWebhookURL(),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured.
func (c *CalendarClient) Enabled() bool {
	return c != nil && c.webhookURL != ""
}

// PushEvent posts the event to the webhook as JSON.
func (c *CalendarClient) PushEvent(ctx context.Context, event CalendarEvent) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("calendar payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar webhook returned status %d", resp.StatusCode)
	}
	return nil
}
