package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookNotifier posts alerts as JSON to an HTTP endpoint (Discord-style
// webhook or any collector that accepts {"subject","content"}).
type WebhookNotifier struct {
	URL        string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier with a bounded delivery timeout.
func NewWebhook(url string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:        url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *WebhookNotifier) Send(subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"subject": subject,
		"content": body,
	})
	if err != nil {
		return err
	}

	resp, err := n.httpClient.Post(n.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
