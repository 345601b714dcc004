package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goldtouch/messenger-relay/internal/config"
)

// Sender delivers a reply to a specific platform user. Implemented by the
// Graph API client; replaced with a double in handler tests.
type Sender interface {
	SendText(ctx context.Context, recipientID, text string) error
}

// Client sends messages through the platform's Send API.
type Client struct {
	cfg    config.MessengerConfig
	client *http.Client
}

func NewClient(cfg config.MessengerConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

type sendRequest struct {
	Recipient recipient   `json:"recipient"`
	Message   textMessage `json:"message"`
}

type recipient struct {
	ID string `json:"id"`
}

type textMessage struct {
	Text string `json:"text"`
}

// SendText posts a text message addressed to recipientID. The access token
// travels as a query parameter, which is how the Send API authenticates.
func (c *Client) SendText(ctx context.Context, recipientID, text string) error {
	body, err := json.Marshal(sendRequest{
		Recipient: recipient{ID: recipientID},
		Message:   textMessage{Text: text},
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/me/messages?access_token=%s",
		c.cfg.BaseURL, c.cfg.APIVersion, url.QueryEscape(c.cfg.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
