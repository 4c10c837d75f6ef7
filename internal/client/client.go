package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 4 * 1024 * 1024

// APIError is a non-2xx answer from the backend. Message is the backend's
// own text and is meant to be shown as-is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client talks to the team API on behalf of one signed-in user.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New builds a client for baseURL, e.g. "http://localhost:8080/api/v1".
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		c.log = log
	}
	return c
}

// do sends one request and returns the status and raw body. Statuses in
// accept are returned as success; anything else becomes an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, accept ...int) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	log.WithField("status", resp.StatusCode).Debug("request done")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, raw, nil
	}
	for _, s := range accept {
		if resp.StatusCode == s {
			return resp.StatusCode, raw, nil
		}
	}
	return resp.StatusCode, raw, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
}

// errorMessage pulls the human-readable text out of an error body. The
// server answers either with {"message": ...}, {"error": ...} or plain text.
func errorMessage(status int, raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"message", "error"} {
			if s, ok := body[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}
