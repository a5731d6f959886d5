// Package registry is the device agent's HTTP client for the dispatch
// service's token endpoints.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client registers and unregisters delivery tokens against the dispatch
// service. The bearer token identifies the user; the server derives the
// registry key from it.
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewClient(baseURL, authToken string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: httpClient,
	}
}

func (c *Client) Register(ctx context.Context, token string) error {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return fmt.Errorf("failed to encode register request: %w", err)
	}
	return c.post(ctx, "/api/v1/tokens/register", body)
}

func (c *Client) Unregister(ctx context.Context) error {
	return c.post(ctx, "/api/v1/tokens/unregister", []byte("{}"))
}

func (c *Client) post(ctx context.Context, path string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, string(detail))
	}
	return nil
}
