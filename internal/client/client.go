// Package client talks to the leaderboard API and keeps the participant's
// local progress.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoEndpoint is returned when no server URL is configured.
var ErrNoEndpoint = errors.New("server url not configured")

// ResponseError is a non-2xx reply from the server.
type ResponseError struct {
	Code    int    `json:"-"`
	Status  string `json:"status"`
	Kind    string `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// StatusResponse is the reply to /register and /health.
type StatusResponse struct {
	Status string `json:"status"`
}

// SubmitResponse is the reply to /submit.
type SubmitResponse struct {
	Status string `json:"status"`
	Score  int    `json:"score,omitempty"`
	Rank   int    `json:"rank,omitempty"`
}

// QuizResponse is the reply to /quiz.
type QuizResponse struct {
	Status string `json:"status"`
	Score  int    `json:"score"`
	Action string `json:"action"`
}

// Entry is one leaderboard row.
type Entry struct {
	Rank         int       `json:"rank"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	Solved       int       `json:"solved"`
	LastAccepted time.Time `json:"last_accepted"`
}

// Result is one accepted submission.
type Result struct {
	Name      string    `json:"name"`
	Problem   int       `json:"problem"`
	Score     int       `json:"score"`
	Rank      int       `json:"rank"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is a leaderboard API client.
type Client struct {
	endpoint string
	client   http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithTransport sets the HTTP transport.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.client.Transport = transport
	}
}

// NewClient returns a new API client for endpoint.
func NewClient(endpoint string, options ...ClientOption) *Client {
	c := Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		client: http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, option := range options {
		option(&c)
	}
	return &c
}

// Endpoint returns the server base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var resp StatusResponse
	return c.do(ctx, http.MethodGet, "/health", nil, &resp)
}

// Register registers name.
func (c *Client) Register(ctx context.Context, name string) (StatusResponse, error) {
	var resp StatusResponse
	err := c.do(ctx, http.MethodPost, "/register", map[string]any{"name": name}, &resp)
	return resp, err
}

// Submit reports that name solved problem.
func (c *Client) Submit(ctx context.Context, name string, problem int) (SubmitResponse, error) {
	var resp SubmitResponse
	err := c.do(ctx, http.MethodPost, "/submit", map[string]any{"name": name, "problem": problem}, &resp)
	return resp, err
}

// Quiz reports a quiz completion for name.
func (c *Client) Quiz(ctx context.Context, name string) (QuizResponse, error) {
	var resp QuizResponse
	err := c.do(ctx, http.MethodPost, "/quiz", map[string]any{"name": name}, &resp)
	return resp, err
}

// Leaderboard returns the top limit standings.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	var resp []Entry
	err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(limit), nil, &resp)
	return resp, err
}

// Rank returns the standing of name.
func (c *Client) Rank(ctx context.Context, name string) (Entry, error) {
	var resp Entry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(name), nil, &resp)
	return resp, err
}

// Results returns accepted results for problem in rank order.
func (c *Client) Results(ctx context.Context, problem int) ([]Result, error) {
	var resp []Result
	err := c.do(ctx, http.MethodGet, "/results?problem="+strconv.Itoa(problem), nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, body, respData any) error {
	if c.endpoint == "" {
		return ErrNoEndpoint
	}
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respErr := ResponseError{Code: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&respErr)
		return &respErr
	}
	if respData == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respData); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
