package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultExpectedStatus is what Discord returns for an accepted webhook without ?wait=true.
	DefaultExpectedStatus = http.StatusNoContent

	defaultTimeout = 30 * time.Second
	errorBodyLimit = 4096
)

// ErrNoWebhook is returned when no webhook URL is configured.
var ErrNoWebhook = errors.New("webhook URL is not configured")

// DeliveryError reports a webhook response other than the expected status.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// WebhookNotifier posts notifications to a Discord-compatible webhook.
type WebhookNotifier struct {
	httpClient     *http.Client
	url            string
	mention        string
	expectedStatus int
}

// WebhookConfig holds configuration for the webhook notifier.
type WebhookConfig struct {
	URL            string
	Mention        string // Message content sent alongside the embed, e.g. "@here"
	ExpectedStatus int    // Defaults to 204

	Timeout    time.Duration
	HTTPClient *http.Client // Optional, overrides Timeout
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	expected := cfg.ExpectedStatus
	if expected == 0 {
		expected = DefaultExpectedStatus
	}

	return &WebhookNotifier{
		httpClient:     client,
		url:            cfg.URL,
		mention:        cfg.Mention,
		expectedStatus: expected,
	}
}

// Send posts the notification once. Any status other than the expected one is an error.
func (w *WebhookNotifier) Send(ctx context.Context, notification Notification) error {
	if w.url == "" {
		return ErrNoWebhook
	}

	payload := BuildPayload(notification)
	payload.Content = w.mention

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != w.expectedStatus {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	slog.Debug("webhook notification delivered",
		"kind", notification.Kind,
		"status", resp.StatusCode,
	)
	return nil
}
