// Package mailer sends transactional email through a Resend-compatible HTTP API.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrMissingRecipient is returned when a message has no recipients.
var ErrMissingRecipient = errors.New("mailer: at least one recipient is required")

// Message is a single outbound email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

// Receipt identifies an accepted message.
type Receipt struct {
	ID string `json:"id"`
}

// Config configures the HTTP client.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client posts messages to the provider's /emails endpoint.
type Client struct {
	http *resty.Client
}

type apiError struct {
	Message string `json:"message"`
	Name    string `json:"name"`
}

// New constructs a client. The API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("mailer: api key must not be empty")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(250 * time.Millisecond).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() == 429 || resp.StatusCode() >= 500
		})

	return &Client{http: httpClient}, nil
}

// Send delivers msg and returns the provider's message id.
func (c *Client) Send(ctx context.Context, msg Message) (Receipt, error) {
	if len(msg.To) == 0 {
		return Receipt{}, ErrMissingRecipient
	}

	var (
		receipt Receipt
		failure apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(msg).
		SetResult(&receipt).
		SetError(&failure).
		Post("/emails")
	if err != nil {
		return Receipt{}, fmt.Errorf("mailer: send request: %w", err)
	}
	if resp.IsError() {
		detail := failure.Message
		if detail == "" {
			detail = strings.TrimSpace(resp.String())
		}
		return Receipt{}, fmt.Errorf("mailer: provider returned %d: %s", resp.StatusCode(), detail)
	}

	return receipt, nil
}
