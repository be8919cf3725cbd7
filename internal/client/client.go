// Package client talks to the snippet HTTP API, including the summary
// stream.
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
	"strings"
	"time"
)

var ErrNotFound = errors.New("snippet not found")

type Snippet struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// APIError is a non-success response that is not a 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient. The client must not set a
// Timeout if summary streams are expected to outlive it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateSnippet(ctx context.Context, text string) (*Snippet, error) {
	return c.create(ctx, "/api/v1/snippets", text)
}

func (c *Client) CreateSnippetWithoutSummary(ctx context.Context, text string) (*Snippet, error) {
	return c.create(ctx, "/api/v1/snippets/only-create", text)
}

func (c *Client) create(ctx context.Context, path, text string) (*Snippet, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var snippet Snippet
	if err := c.do(ctx, http.MethodPost, path, body, http.StatusCreated, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

func (c *Client) GetSnippet(ctx context.Context, id string) (*Snippet, error) {
	var snippet Snippet
	if err := c.do(ctx, http.MethodGet, snippetPath(id), nil, http.StatusOK, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

func (c *Client) ListSnippets(ctx context.Context) ([]Snippet, error) {
	var snippets []Snippet
	if err := c.do(ctx, http.MethodGet, "/api/v1/snippets", nil, http.StatusOK, &snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

func (c *Client) DeleteSnippet(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, snippetPath(id), nil, http.StatusNoContent, nil)
}

func snippetPath(id string) string {
	return "/api/v1/snippets/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, want int, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
}
