// Package llm is a small client for OpenAI-compatible chat completion APIs.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds one HTTP round trip, including a full stream.
	DefaultTimeout = 120 * time.Second
	// MaxRetries for rate limited and server errors
	MaxRetries = 3
	// InitialBackoff doubles on every retry
	InitialBackoff = 2 * time.Second

	defaultRateLimit = 2
	defaultBurst     = 4
)

// Error types for specific API errors
type (
	// AuthenticationError indicates a rejected API key
	AuthenticationError struct{ Message string }
	// RateLimitError indicates the provider throttled the request
	RateLimitError struct{ Message string }
	// ValidationError indicates the provider rejected the request body or model
	ValidationError struct{ Message string }
	// APIError is any other non-success response
	APIError struct {
		Status  int
		Message string
	}
)

func (e AuthenticationError) Error() string { return e.Message }
func (e RateLimitError) Error() string      { return e.Message }
func (e ValidationError) Error() string     { return e.Message }
func (e APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Message)
}

// transportError wraps network failures, which are retried.
type transportError struct{ err error }

func (e transportError) Error() string { return e.err.Error() }
func (e transportError) Unwrap() error { return e.err }

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat completion call.
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer returns the full text of a completion.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Config holds what a client needs to reach a provider.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Stream requests server-sent events; the deltas are joined before returning.
	Stream bool
}

// Client talks to one provider with one model.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	stream     bool
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// WithBaseURL overrides the provider base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets a custom timeout for the HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLimiter replaces the request rate limiter
func WithLimiter(l *rate.Limiter) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.limiter = l
		}
	}
}

// WithLogger sets the logger used for request and retry events
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry sets the retry budget and the first backoff
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
	}
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, AuthenticationError{Message: "API key required"}
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, ValidationError{Message: "model required"}
	}

	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		stream:     cfg.Stream,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     zap.NewNop(),
		maxRetries: MaxRetries,
		backoff:    InitialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.baseURL) == "" {
		return nil, ValidationError{Message: "base URL required"}
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c, nil
}

// Model returns the model the client sends requests to.
func (c *Client) Model() string { return c.model }

// Complete sends req and returns the completion text. Rate limited and
// server errors are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body := chatRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      c.stream,
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff * time.Duration(1<<(attempt-1))
			c.logger.Warn("retrying completion",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", wait),
				zap.Error(lastErr))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		c.logger.Debug("completion request",
			zap.String("model", c.model),
			zap.Bool("stream", c.stream),
			zap.Int("messages", len(req.Messages)))

		text, err := c.do(ctx, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	var rateErr RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	var netErr transportError
	return errors.As(err, &netErr)
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, body chatRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", transportError{err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", statusError(resp.StatusCode, raw)
	}

	if body.Stream {
		return readStream(resp.Body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func statusError(status int, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Error.Message != "" {
		msg = eb.Error.Message
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return AuthenticationError{Message: "invalid API key: " + msg}
	case http.StatusTooManyRequests:
		return RateLimitError{Message: "rate limit exceeded: " + msg}
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return ValidationError{Message: "invalid request: " + msg}
	default:
		return APIError{Status: status, Message: msg}
	}
}

// readStream joins the content deltas of a server-sent event stream.
func readStream(r io.Reader) (string, error) {
	var out strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("failed to parse stream chunk: %w", err)
		}
		if len(chunk.Choices) > 0 {
			out.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", transportError{err: fmt.Errorf("failed to read stream: %w", err)}
	}
	return out.String(), nil
}
