package inference

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

	"chat-forwarder/internal/domain"
)

// ErrNoResponseContent is returned when the endpoint answers 200 without a
// usable "response" field.
var ErrNoResponseContent = errors.New("inference: no response content from endpoint")

// predictRequest is the payload accepted by the predict endpoint.
type predictRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// predictResponse is the minimal response shape returned by the predict endpoint.
type predictResponse struct {
	Response string `json:"response"`
}

// HTTPStatusError captures non-200 upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("inference: endpoint returned status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// TransportError wraps failures reaching the endpoint at all (DNS, refused
// connections, timeouts).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("inference: post %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Transport() bool {
	return true
}

// Client posts conversations to a single configured predict endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each request. Zero leaves the transport default in place.
// It applies to whichever HTTP client is configured, regardless of option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("inference: endpoint must not be empty")
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.resolvedHTTPClient()
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

// Predict sends the full conversation and returns the assistant reply.
func (c *Client) Predict(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	body, err := json.Marshal(predictRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("inference: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("inference: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return "", &TransportError{URL: c.endpoint, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        c.endpoint,
			Body:       string(buf),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", &TransportError{URL: c.endpoint, Err: fmt.Errorf("read response body: %w", err)}
	}

	var payload predictResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("inference: decode response: %w", err)
	}
	if payload.Response == "" {
		return "", ErrNoResponseContent
	}
	return payload.Response, nil
}
