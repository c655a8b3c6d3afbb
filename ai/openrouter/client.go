package openrouter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/tracker"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/httpclient"
)

const (
	// DefaultModel is the fallback model when none is specified.
	// Should match the default in am/defaults.go.
	DefaultModel = "openai/gpt-4o-mini"

	// DefaultBaseURL is the OpenRouter API root
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	maxRetries = 3
)

// Client is an OpenRouter.ai chat completion client
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *httpclient.Client
	config       Config
	usageTracker *tracker.UsageTracker
	logger       *zap.SugaredLogger
}

// Config holds AI client configuration
type Config struct {
	APIKey        string
	BaseURL       string   // empty = DefaultBaseURL
	Model         string
	Temperature   *float64 // nil = 0, answers about sensor data should be reproducible
	MaxTokens     *int     // nil = 1000
	Logger        *zap.SugaredLogger
	DB            *sql.DB // usage tracking, optional
	OperationType string  // tracking context, e.g. "classify", "translate"
	EntityType    string
	EntityID      string
}

// NewClient creates a new OpenRouter.ai client
func NewClient(config Config) *Client {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Temperature == nil {
		defaultTemp := 0.0
		config.Temperature = &defaultTemp
	}
	if config.MaxTokens == nil {
		defaultTokens := 1000
		config.MaxTokens = &defaultTokens
	}

	var usageTracker *tracker.UsageTracker
	if config.DB != nil {
		usageTracker = tracker.NewUsageTracker(config.DB)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Client{
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		httpClient:   httpclient.New(120*time.Second, httpclient.Options{BlockPrivate: true}),
		config:       config,
		usageTracker: usageTracker,
		logger:       logger,
	}
}

// ChatCompletionRequest is the body of POST /chat/completions
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// ChatRequest is a single system+user exchange
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // Override default temperature
	MaxTokens    *int     // Override default max tokens
	Model        *string  // Override default model
}

// ChatResponse represents the AI response
type ChatResponse struct {
	Content string
	Model   string
	Usage   Usage
}

// Message is one chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents the response from chat completions
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CreateChatCompletion sends one chat completion request
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.config.OperationType != "" {
		httpReq.Header.Set("X-Title", "roomq/"+c.config.OperationType)
	} else {
		httpReq.Header.Set("X-Title", "roomq")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &chatResp, nil
}

// Chat sends a system+user prompt, retrying transient network failures
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.config.APIKey == "" {
		return nil, errors.WithHint(
			errors.Mark(errors.New("OpenRouter API key not configured"), errors.ErrServiceUnavailable),
			"set OPENROUTER_API_KEY or openrouter.api_key in am.toml")
	}

	temperature := *c.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := *c.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	model := c.config.Model
	if req.Model != nil {
		model = *req.Model
	}

	c.logger.Debugw("AI chat request",
		"model", model,
		"temperature", temperature,
		"max_tokens", maxTokens,
		"user_prompt", req.UserPrompt,
	)

	messages := []Message{{Role: "user", Content: req.UserPrompt}}
	if req.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}
	completionReq := ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	requestTime := time.Now()
	resp, err := c.completeWithRetry(ctx, completionReq)
	if err == nil && len(resp.Choices) == 0 {
		err = errors.New("no response choices from OpenRouter")
	}
	if err != nil {
		c.track(requestTime, completionReq, Usage{}, err)
		return nil, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debugw("OpenRouter response",
		"content_length", len(content),
		"total_tokens", resp.Usage.TotalTokens)
	c.track(requestTime, completionReq, resp.Usage, nil)

	return &ChatResponse{Content: content, Model: model, Usage: resp.Usage}, nil
}

// completeWithRetry retries transient failures with a linear backoff
func (c *Client) completeWithRetry(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * time.Second
			c.logger.Debugw("Retrying OpenRouter request", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "OpenRouter request cancelled")
			case <-time.After(delay):
			}
		}

		resp, err := c.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		c.logger.Warnw("OpenRouter API error",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"model", req.Model,
			"error", err.Error())

		if !isRetryableError(err) {
			return nil, errors.Wrap(err, "OpenRouter API error")
		}
	}
	return nil, errors.Wrapf(lastErr, "OpenRouter API error after %d attempts", maxRetries)
}

// isRetryableError reports whether err looks like a transient network failure
func isRetryableError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errno, ok := opErr.Err.(syscall.Errno); ok {
			switch errno {
			case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT:
				return true
			}
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset by peer",
		"connection refused",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"status 429",
		"status 502",
		"status 503",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

// track records one request in the usage table; callErr nil means success
func (c *Client) track(requestTime time.Time, req ChatCompletionRequest, usage Usage, callErr error) {
	if c.usageTracker == nil {
		return
	}
	responseTime := time.Now()
	record := &tracker.ModelUsage{
		OperationType:     c.config.OperationType,
		EntityType:        c.config.EntityType,
		EntityID:          c.config.EntityID,
		ModelName:         req.Model,
		ModelProvider:     "openrouter",
		ModelConfig:       tracker.NewModelConfig(&req.Temperature, &req.MaxTokens),
		RequestTimestamp:  requestTime,
		ResponseTimestamp: &responseTime,
		Success:           callErr == nil,
	}
	if callErr != nil {
		msg := callErr.Error()
		record.ErrorMessage = &msg
	} else {
		tokens := usage.TotalTokens
		cost := CalculateCost(req.Model, usage.PromptTokens, usage.CompletionTokens)
		record.TokensUsed = &tokens
		record.Cost = &cost
	}
	if err := c.usageTracker.TrackUsage(record); err != nil {
		c.logger.Warnw("Failed to track usage", "model", req.Model, "error", err.Error())
	}
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.config.APIKey != ""
}

// Model returns the default model
func (c *Client) Model() string {
	return c.config.Model
}

// SetHTTPClient overrides the HTTP client. Only tests should call this.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.Wrap(client)
}
