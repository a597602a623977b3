package userservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/paddle-arena/internal/model"
)

// Client is an HTTP client for the user service's relationship endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// New creates a new user service client
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: make(map[string]string),
	}
}

// SetHeader adds a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

type blockedResponse struct {
	Blocked bool `json:"blocked"`
}

// IsBlocked reports whether either user blocks the other
func (c *Client) IsBlocked(ctx context.Context, sender, recipient model.PlayerID) (bool, error) {
	resp, err := c.get(ctx, c.relationPath(sender, "blocks", recipient))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, statusError(resp)
	}

	var body blockedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode block status: %w", err)
	}
	return body.Blocked, nil
}

// EnsureFriendship returns nil if the users are friends and model.ErrNotFriends if they are not
func (c *Client) EnsureFriendship(ctx context.Context, sender, recipient model.PlayerID) error {
	resp, err := c.get(ctx, c.relationPath(sender, "friends", recipient))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return model.ErrNotFriends
	default:
		return statusError(resp)
	}
}

func (c *Client) relationPath(sender model.PlayerID, relation string, recipient model.PlayerID) string {
	return fmt.Sprintf("/api/v1/users/%s/%s/%s",
		url.PathEscape(string(sender)), relation, url.PathEscape(string(recipient)))
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("user service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
