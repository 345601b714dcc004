package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goldtouch/messenger-relay/internal/config"
)

// Sender delivers an SMS to a phone number. Implemented by the ClickSend
// client; replaced with a double in booking tests.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Client sends SMS through the ClickSend v3 REST API.
type Client struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewClient(cfg config.SMSConfig) *Client {
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

type smsPayload struct {
	Messages []smsMessage `json:"messages"`
}

type smsMessage struct {
	Source string `json:"source"`
	From   string `json:"from"`
	To     string `json:"to"`
	Body   string `json:"body"`
}

// Send dispatches one SMS. ClickSend authenticates with HTTP basic auth
// (username + API key).
func (c *Client) Send(ctx context.Context, to, body string) error {
	payload := smsPayload{
		Messages: []smsMessage{{
			Source: "relay",
			From:   c.cfg.From,
			To:     to,
			Body:   body,
		}},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	url := c.cfg.BaseURL + "/sms/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.Username, c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
