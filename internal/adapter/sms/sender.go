package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPSender implements ports.SMSSender against a JSON SMS gateway.
type HTTPSender struct {
	endpoint   string
	apiKey     string
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewHTTPSender creates an SMS sender for the configured gateway.
func NewHTTPSender(endpoint, apiKey string, log zerolog.Logger) *HTTPSender {
	return &HTTPSender{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// NewHTTPSenderWithClient allows injecting the HTTP client in tests.
func NewHTTPSenderWithClient(endpoint, apiKey string, client HTTPClient, log zerolog.Logger) *HTTPSender {
	return &HTTPSender{endpoint: endpoint, apiKey: apiKey, httpClient: client, log: log}
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send delivers one SMS. The message body is never logged since it can
// carry one-time codes.
func (s *HTTPSender) Send(ctx context.Context, mobile, message string) error {
	payload, err := json.Marshal(smsRequest{To: mobile, Message: message})
	if err != nil {
		return fmt.Errorf("marshal sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	s.log.Info().Str("mobile", mobile).Msg("sms dispatched")
	return nil
}
