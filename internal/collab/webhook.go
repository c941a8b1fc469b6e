package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookNotifier implements Notifier by POSTing the notification as
// JSON to a configured endpoint (a chat webhook, a mail bridge, etc).
type WebhookNotifier struct {
	Endpoint string
	Client   *http.Client
}

// NewWebhookNotifier returns a Notifier posting to endpoint.
func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Recipients []string `json:"recipients,omitempty"`
}

// Send delivers n. An unset endpoint silently drops the message so a
// bare configuration still runs pipelines.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if w.Endpoint == "" {
		return nil
	}

	payload, err := json.Marshal(webhookPayload{
		Subject:    n.Subject,
		Body:       n.Body,
		Recipients: n.Recipients,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification endpoint returned %s", resp.Status)
	}
	return nil
}
