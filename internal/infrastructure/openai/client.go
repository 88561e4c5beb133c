package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pricescout/backend/internal/domain"
)

const (
	userAgent = "PriceScout/2.0"

	// maxResponseBytes caps how much of an upstream body is read
	maxResponseBytes = 8 << 20

	promptPreviewLen = 300
)

// Config tunes the chat-completions client
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	Burst             int
	InitialBackoff    time.Duration
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
// The API key is supplied per call because browsers bring their own.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	rateLimiter    *rate.Limiter
	maxRetries     int
	initialBackoff time.Duration
	debug          bool
	logger         *zap.Logger
}

var _ domain.ChatCompleter = (*Client)(nil)

// NewClient creates a chat-completions client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		logger:         logger.Named("openai"),
	}
}

// SetDebug enables logging of prompt previews
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Complete sends one chat completion. Non-2xx answers come back as
// *domain.GatewayError; transport failures wrap domain.ErrLLMAPIFailure or
// domain.ErrLLMTimeout.
func (c *Client) Complete(ctx context.Context, apiKey string, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.logPrompt(req)

	endpoint := c.baseURL + "/chat/completions"
	attempt := 0

	var result *domain.CompletionResponse
	operation := func() error {
		attempt++

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter error: %w", err))
		}

		status, body, err := c.doRequest(ctx, endpoint, apiKey, payload)
		if err != nil {
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			if errors.Is(err, domain.ErrLLMTimeout) {
				return backoff.Permanent(err)
			}
			return err
		}

		if status != http.StatusOK {
			gwErr := TranslateStatus(status, body)
			c.logger.Warn("upstream error",
				zap.Int("attempt", attempt),
				zap.Int("status", status),
				zap.String("code", gwErr.Code),
				zap.String("details", gwErr.Details),
			)
			if isRetryableStatus(status) {
				return gwErr
			}
			return backoff.Permanent(gwErr)
		}

		var resp domain.CompletionResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		result = &resp
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx)); err != nil {
		return nil, err
	}

	if result.Usage != nil {
		c.logger.Info("completion received",
			zap.String("model", result.Model),
			zap.Int("prompt_tokens", result.Usage.PromptTokens),
			zap.Int("completion_tokens", result.Usage.CompletionTokens),
			zap.Int("total_tokens", result.Usage.TotalTokens),
		)
	}
	return result, nil
}

// doRequest executes a POST and returns the status and a bounded body
func (c *Client) doRequest(ctx context.Context, endpoint, apiKey string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, fmt.Errorf("%w: %v", domain.ErrLLMTimeout, err)
		}
		if ctx.Err() != nil {
			return 0, nil, backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, ctx.Err()))
		}
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrLLMAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxResponseBytes)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: reading body: %v", domain.ErrLLMAPIFailure, err)
	}
	return resp.StatusCode, body, nil
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// logPrompt logs the leading system prompt and the user message when debugging
func (c *Client) logPrompt(req *domain.CompletionRequest) {
	if !c.debug {
		return
	}
	fields := []zap.Field{
		zap.String("model", req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Int("messages", len(req.Messages)),
	}
	if len(req.Messages) > 0 && req.Messages[0].Role == domain.RoleSystem {
		fields = append(fields, zap.String("system_prompt", preview(req.Messages[0].Content, promptPreviewLen)))
	}
	for _, m := range req.Messages {
		if m.Role == domain.RoleUser {
			fields = append(fields, zap.String("user_message", m.Content))
			break
		}
	}
	c.logger.Debug("sending completion", fields...)
}

// preview truncates s to n runes
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
