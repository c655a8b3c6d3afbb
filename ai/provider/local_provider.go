package provider

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/ai/tracker"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/httpclient"
	"github.com/teranos/roomq/logger"
)

// LocalConfig configures a LocalProvider
type LocalConfig struct {
	BaseURL        string
	Model          string
	TimeoutSeconds int
	DB             *sql.DB
	Logger         *zap.SugaredLogger
	OperationType  string
}

// LocalProvider talks to a local inference server (Ollama, LocalAI, or any
// OpenAI-compatible endpoint) via /v1/chat/completions
type LocalProvider struct {
	baseURL      string
	model        string
	httpClient   *httpclient.Client
	usageTracker *tracker.UsageTracker
	log          *zap.SugaredLogger
	operation    string
}

// NewLocalProvider creates a provider for local inference
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	lp := &LocalProvider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		// Local servers listen on loopback, so private addresses stay reachable
		httpClient: httpclient.New(timeout, httpclient.Options{}),
		log:        logger.OrNop(cfg.Logger),
		operation:  cfg.OperationType,
	}
	if cfg.DB != nil {
		lp.usageTracker = tracker.NewUsageTracker(cfg.DB)
	}
	return lp
}

type localRequest struct {
	Model       string               `json:"model"`
	Messages    []openrouter.Message `json:"messages"`
	Stream      bool                 `json:"stream"`
	Temperature float64              `json:"temperature"`
	MaxTokens   int                  `json:"max_tokens,omitempty"`
}

// Chat implements AIClient for local inference
func (lp *LocalProvider) Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	model := lp.model
	if req.Model != nil && *req.Model != "" {
		model = *req.Model
	}
	temperature := 0.0
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := 0
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	messages := []openrouter.Message{{Role: "user", Content: req.UserPrompt}}
	if req.SystemPrompt != "" {
		messages = append([]openrouter.Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}

	body, err := json.Marshal(localRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	requestTime := time.Now()
	content, usage, err := lp.post(ctx, body)
	lp.track(requestTime, model, usage, err)
	if err != nil {
		return nil, err
	}

	return &openrouter.ChatResponse{Content: strings.TrimSpace(content), Model: model, Usage: usage}, nil
}

func (lp *LocalProvider) post(ctx context.Context, body []byte) (string, openrouter.Usage, error) {
	endpoint := lp.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", openrouter.Usage{}, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := lp.httpClient.Do(httpReq)
	if err != nil {
		return "", openrouter.Usage{}, errors.Wrapf(err, "local inference request to %s failed", endpoint)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", openrouter.Usage{}, errors.Newf("local inference returned status %d: %s", resp.StatusCode, string(b))
	}

	var completion openrouter.ChatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", openrouter.Usage{}, errors.Wrap(err, "failed to decode response")
	}
	if len(completion.Choices) == 0 {
		return "", openrouter.Usage{}, errors.New("no completion choices returned")
	}
	return completion.Choices[0].Message.Content, completion.Usage, nil
}

func (lp *LocalProvider) track(requestTime time.Time, model string, usage openrouter.Usage, callErr error) {
	if lp.usageTracker == nil {
		return
	}
	responseTime := time.Now()
	record := &tracker.ModelUsage{
		OperationType:     lp.operation,
		EntityType:        "question",
		ModelName:         model,
		ModelProvider:     string(ProviderTypeLocal),
		RequestTimestamp:  requestTime,
		ResponseTimestamp: &responseTime,
		Success:           callErr == nil,
	}
	if callErr != nil {
		msg := callErr.Error()
		record.ErrorMessage = &msg
	} else {
		tokens := usage.TotalTokens
		free := 0.0
		record.TokensUsed = &tokens
		record.Cost = &free
	}
	if err := lp.usageTracker.TrackUsage(record); err != nil {
		lp.log.Warnw("Failed to track local usage", "error", err, "model", model)
	}
}

// ModelName returns the configured local model name
func (lp *LocalProvider) ModelName() string {
	return lp.model
}

// SetHTTPClient overrides the HTTP client. Only tests should call this.
func (lp *LocalProvider) SetHTTPClient(client *http.Client) {
	lp.httpClient = httpclient.Wrap(client)
}
