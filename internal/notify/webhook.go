package notify

import (
	"bytes"
	"cinema-seat-booking/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notifier delivers a booking notification to an external system.
type Notifier interface {
	Notify(ctx context.Context, n *model.BookingNotification) error
}

type WebhookNotifierImpl struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, timeout time.Duration) Notifier {
	return &WebhookNotifierImpl{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// StatusError reports a webhook response outside 2xx.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
}

func (w *WebhookNotifierImpl) Notify(ctx context.Context, n *model.BookingNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}
