package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client pushes notifications to the admin chat. Used for emergency
// intents and device delivery failures; never on the critical path.
type Client struct {
	botToken   string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(botToken, chatID string) *Client {
	return NewClientWithURL(botToken, chatID, "https://api.telegram.org")
}

func NewClientWithURL(botToken, chatID, baseURL string) *Client {
	return &Client{
		botToken:   botToken,
		chatID:     chatID,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Notify(ctx context.Context, message string) error {
	if c.botToken == "" || c.chatID == "" {
		return nil
	}

	data := url.Values{}
	data.Set("chat_id", c.chatID)
	data.Set("text", message)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
