package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Message is a single outbound email.
type Message struct {
	To      string `json:"to"`
	ToName  string `json:"to_name,omitempty"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// HTTPMailer posts messages to a transactional email API.
type HTTPMailer struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewHTTPMailer(url, apiKey string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPMailer{URL: url, APIKey: apiKey, Client: &http.Client{Timeout: timeout}}
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if m.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.APIKey)
	}

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("email api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email api: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. Used when no email API is configured.
type LogMailer struct {
	Log zerolog.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("email not sent, no provider configured")
	return nil
}
