// Package discord talks to the Discord REST API: it publishes event views
// as channel messages and sends alert direct messages.
package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://discord.com/api/v10"

// Config configures the REST client.
type Config struct {
	BaseURL    string
	Token      string
	BotUserID  string
	Timeout    time.Duration
	RetryCount int
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client is a thin REST client scoped to one bot.
type Client struct {
	http  *resty.Client
	botID string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "fireteam (https://github.com/fireteam-lab/fireteam, 1.0)").
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r.StatusCode() == http.StatusTooManyRequests
		})
	if cfg.Token != "" {
		httpClient.SetHeader("Authorization", "Bot "+cfg.Token)
	}

	return &Client{http: httpClient, botID: cfg.BotUserID}
}

// do sends a request and decodes a JSON result into result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, pathParams map[string]string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetPathParams(pathParams)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("discord %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode(), Body: resp.String()}
	}
	return nil
}
