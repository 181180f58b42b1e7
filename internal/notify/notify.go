// Package notify delivers fire-and-forget push notifications. Delivery
// failures are for the caller to log; nothing here retries.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Notifier sends a human-readable message somewhere a person will see it.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// PushClient posts messages to a token-authenticated notification endpoint
// (a LINE-Notify-style API: bearer token, form-encoded message field).
type PushClient struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewPushClient creates a push notifier for the given endpoint and access
// token.
func NewPushClient(endpoint, token string) *PushClient {
	return &PushClient{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts one message. Non-2xx responses are errors.
func (p *PushClient) Notify(ctx context.Context, message string) error {
	form := url.Values{"message": {message}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build notify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notification endpoint returned %s", resp.Status)
	}
	return nil
}

// NopNotifier discards all messages. Used for dry runs and tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error { return nil }
