package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
)

const (
	defaultBaseURL    = "https://api.openai.com/v1"
	defaultModel      = "gpt-4o-mini"
	defaultMaxRetries = 3
	initialBackoff    = 500 * time.Millisecond
	maxRetryAfter     = 10 * time.Second
	maxErrorBody      = 4 << 10
)

// Client implements Completer against an OpenAI-compatible
// /chat/completions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing and proxies).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxRetries sets how many attempts are made when the provider answers
// 429. Values below one mean a single attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = max(n, 1)
	}
}

// WithRateLimit caps outgoing requests to qpm per minute. Zero disables the
// limiter.
func WithRateLimit(qpm int) Option {
	return func(c *Client) {
		if qpm <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(qpm)), max(qpm/10, 1))
	}
}

// NewClient creates a chat completion client authenticated with apiKey.
func NewClient(httpClient *http.Client, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ChatComplete sends system plus messages and returns the first choice's
// content. Rate-limited responses are retried with exponential backoff.
func (c *Client) ChatComplete(ctx context.Context, system string, messages []Message, opts Options) (string, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    make([]Message, 0, len(messages)+1),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if system != "" {
		payload.Messages = append(payload.Messages, Message{Role: RoleSystem, Content: system})
	}
	payload.Messages = append(payload.Messages, messages...)
	if opts.JSONOnly {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	var lastErr *UpstreamError
	for attempt := range c.maxRetries {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", contextError(ctx, err)
			}
		}

		content, err := c.do(ctx, body)
		if err == nil {
			return content, nil
		}

		var upstreamErr *UpstreamError
		if !errors.As(err, &upstreamErr) || upstreamErr.Kind != KindRateLimited {
			return "", err
		}
		lastErr = upstreamErr

		if attempt == c.maxRetries-1 {
			break
		}
		wait := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
		if upstreamErr.RetryAfter > 0 {
			wait = min(upstreamErr.RetryAfter, maxRetryAfter)
		}
		applog.LogWarn(ctx, "language model rate limited, backing off",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", contextError(ctx, ctx.Err())
		case <-timer.C:
		}
	}
	return "", lastErr
}

func (c *Client) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", contextError(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", upstreamErrorFromResponse(ctx, resp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", contextError(ctx, fmt.Errorf("decoding completion: %w", err))
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", NewUpstreamError(KindUpstream, resp.StatusCode, ErrEmptyCompletion)
	}

	applog.LogInfo(ctx, "language model completion",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("promptTokens", decoded.Usage.PromptTokens),
		zap.Int("completionTokens", decoded.Usage.CompletionTokens),
		zap.String("finishReason", decoded.Choices[0].FinishReason),
	)
	return decoded.Choices[0].Message.Content, nil
}

// contextError classifies transport failures, reporting deadline expiry as a
// timeout.
func contextError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewUpstreamError(KindTimeout, 0, ErrTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return NewUpstreamError(KindUpstream, 0, fmt.Errorf("%w: %w", ErrUpstream, context.Canceled))
	}
	return NewUpstreamError(KindUpstream, 0, fmt.Errorf("%w: %v", ErrUpstream, err))
}

func upstreamErrorFromResponse(ctx context.Context, resp *http.Response) *UpstreamError {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var e *UpstreamError
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		e = NewUpstreamError(KindRateLimited, resp.StatusCode, ErrRateLimited)
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case http.StatusUnauthorized, http.StatusForbidden:
		e = NewUpstreamError(KindUnauthorized, resp.StatusCode, ErrUnauthorized)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		e = NewUpstreamError(KindTimeout, resp.StatusCode, ErrTimeout)
	default:
		e = NewUpstreamError(KindUpstream, resp.StatusCode, ErrUpstream)
	}

	applog.LogWarn(ctx, "language model request failed",
		zap.Int("status", resp.StatusCode),
		zap.String("kind", string(e.Kind)),
		zap.String("body", strings.TrimSpace(string(snippet))),
	)
	return e
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Compile-time interface check
var _ Completer = (*Client)(nil)
