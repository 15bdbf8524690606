// Package notify delivers completion notifications. The webhook
// notifier POSTs the notification payload to a configured URL; the log
// notifier is the fallback when no webhook is configured. Delivery is
// best-effort by contract: the finalization step logs failures and
// never lets them change the workflow outcome.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/minutely/minute-api/internal/config"
	"github.com/minutely/minute-api/internal/domain"
)

// ErrEmptyWebhookURL indicates the webhook notifier was constructed
// without a destination.
var ErrEmptyWebhookURL = errors.New("webhook URL cannot be empty")

const defaultTimeout = 10 * time.Second

// WebhookNotifier delivers notifications by POSTing them as JSON to a
// configured endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewWebhookNotifier creates a notifier for the configured webhook.
func NewWebhookNotifier(cfg config.NotifyConfig, logger *slog.Logger) (*WebhookNotifier, error) {
	if cfg.WebhookURL == "" {
		return nil, ErrEmptyWebhookURL
	}

	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "webhook_notifier"),
	}, nil
}

// Notify POSTs the notification to the webhook endpoint. Any non-2xx
// response is an error.
func (n *WebhookNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("notification delivered",
		"recording_id", notification.RecordingID,
		"type", notification.Type)
	return nil
}

// LogNotifier writes notifications to the structured log. It is the
// delivery path when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs instead of delivering.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogNotifier{logger: logger.With("component", "log_notifier")}
}

// Notify logs the notification payload.
func (n *LogNotifier) Notify(ctx context.Context, notification domain.Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"recording_id", notification.RecordingID,
		"user_id", notification.UserID,
		"type", notification.Type,
		"title", notification.Title,
		"message", notification.Message)
	return nil
}
