package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/observability"
)

// WebhookSink POSTs each event as JSON to a configured endpoint. This is the
// seam where a chat transport (bot process, notification relay) subscribes to
// lifecycle transitions.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink creates a webhook sink for the given endpoint URL.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url: url,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Deliver sends the event. Non-2xx responses count as delivery failures.
func (s *WebhookSink) Deliver(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		observability.IncrementNotifyFailure("webhook")
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.IncrementNotifyFailure("webhook")
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
