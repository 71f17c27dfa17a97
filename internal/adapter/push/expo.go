package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"splitledger/config"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ExpoNotifier implements ports.NotificationSink against the Expo push API.
type ExpoNotifier struct {
	endpoint   string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewExpoNotifier creates a push notifier for the configured endpoint.
func NewExpoNotifier(cfg config.PushConfig, log zerolog.Logger) *ExpoNotifier {
	return &ExpoNotifier{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// NewExpoNotifierWithClient allows injecting the HTTP client in tests.
func NewExpoNotifierWithClient(endpoint string, client HTTPClient, log zerolog.Logger) *ExpoNotifier {
	return &ExpoNotifier{endpoint: endpoint, httpClient: client, log: log}
}

// expoMessage is the JSON body the Expo push endpoint accepts.
type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
	Sound string            `json:"sound"`
}

// Notify sends one push message. Callers treat failures as best effort.
func (n *ExpoNotifier) Notify(ctx context.Context, pushToken, title, body string, data map[string]string) error {
	msg := expoMessage{
		To:    pushToken,
		Title: title,
		Body:  body,
		Data:  data,
		Sound: "default",
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}

	n.log.Debug().Str("title", title).Msg("push notification sent")
	return nil
}
