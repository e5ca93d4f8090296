// Package firebase is the device-command sink: a Realtime Database
// REST client that writes commands under /commands, keyed by device,
// and appends audit entries under /logs.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voiceops/internal/domain"
	"voiceops/internal/infra"
)

type Client struct {
	baseURL    string
	authSecret string
	httpClient *http.Client
	vocab      *domain.Vocabulary
}

func NewClient(databaseURL, authSecret string, vocab *domain.Vocabulary) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(databaseURL, "/"),
		authSecret: authSecret,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		vocab:      vocab,
	}
}

// LogEntry is one append-only audit record under /logs.
type LogEntry struct {
	Device    string `json:"device"`
	Command   string `json:"command"`
	Value     any    `json:"value,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Send writes the action under /commands/<device>. Plain devices store
// the bare command string; timed devices store a trigger object with
// duration and timestamp, which is the shape the firmware polls for.
func (c *Client) Send(ctx context.Context, action domain.Action) error {
	if c.baseURL == "" {
		return fmt.Errorf("firebase database url not configured")
	}

	var payload any = action.Command
	if c.vocab.Timed(action.Device) {
		payload = map[string]any{
			"status":    action.Command,
			"duration":  action.Value,
			"timestamp": time.Now().Format(time.RFC3339),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling command: %w", err)
	}

	path := fmt.Sprintf("/commands/%s.json", url.PathEscape(action.Device))
	if err := c.write(ctx, http.MethodPut, path, body); err != nil {
		return fmt.Errorf("sending command: %w", err)
	}
	return nil
}

// AppendLog pushes an audit entry. Log failures are the caller's to
// swallow; command delivery does not depend on the audit trail.
func (c *Client) AppendLog(ctx context.Context, action domain.Action) error {
	if c.baseURL == "" {
		return fmt.Errorf("firebase database url not configured")
	}

	entry := LogEntry{
		Device:    action.Device,
		Command:   action.Command,
		Value:     action.Value,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling log entry: %w", err)
	}

	if err := c.write(ctx, http.MethodPost, "/logs.json", body); err != nil {
		return fmt.Errorf("appending log: %w", err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, body []byte) error {
	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		target := c.baseURL + path
		if c.authSecret != "" {
			target += "?auth=" + url.QueryEscape(c.authSecret)
		}

		req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return infra.HTTPStatusError("firebase", resp.StatusCode, respBody)
		}

		return nil
	})
}
