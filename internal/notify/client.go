package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event is the queue payload produced after an admitted attendance
// transition. The worker re-fetches the record by id before notifying.
type Event struct {
	RecordID string `json:"record_id"`
	Action   string `json:"action"`
}

// SendResult contains the gateway's acceptance response.
type SendResult struct {
	MessageID string
	Accepted  bool
}

// Client calls the SMS gateway used for parent notifications.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, sends are mocked out.
func New(baseURL, apiKey string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers one text message to a phone number.
func (c *Client) Send(ctx context.Context, phone, text string) (*SendResult, error) {
	if c.Skip {
		return &SendResult{MessageID: "mock-message", Accepted: true}, nil
	}
	if phone == "" {
		return nil, fmt.Errorf("phone number required")
	}

	body, _ := json.Marshal(map[string]string{"to": phone, "text": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("notify gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("notify gateway error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		MessageID string `json:"message_id"`
		Accepted  bool   `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &SendResult{MessageID: out.MessageID, Accepted: out.Accepted}, nil
}

// Health checks if the gateway is available.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify gateway unhealthy: %s", resp.Status)
	}
	return nil
}
