// Package embeddings is a client for OpenAI-compatible /embeddings endpoints
// (OpenAI, OpenRouter-compatible gateways, Ollama).
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/httpclient"
	"github.com/teranos/roomq/logger"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
)

// Config configures a Client
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int // 0 = model default
	Timeout    time.Duration
	// AllowPrivate permits loopback and private addresses, for local servers
	AllowPrivate bool
	Logger       *zap.SugaredLogger
}

// Client turns text into embedding vectors
type Client struct {
	cfg        Config
	baseURL    string
	httpClient *httpclient.Client
	log        *zap.SugaredLogger
}

// NewClient creates an embeddings client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.New(cfg.Timeout, httpclient.Options{BlockPrivate: !cfg.AllowPrivate}),
		log:        logger.OrNop(cfg.Logger),
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// Model returns the embedding model name
func (c *Client) Model() string {
	return c.cfg.Model
}

// Embed returns the embedding of one text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one embedding per input text, in input order
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Model: c.cfg.Model, Input: texts, Dimensions: c.cfg.Dimensions})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal embedding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "embedding request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedding response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("embedding API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedding response")
	}
	if len(parsed.Data) != len(texts) {
		return nil, errors.Newf("embedding API returned %d vectors for %d inputs", len(parsed.Data), len(texts))
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	out := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.Newf("embedding %d is empty", i)
		}
		out[i] = d.Embedding
	}

	c.log.Debugw("Embedded texts",
		logger.FieldCount, len(texts),
		"model", c.cfg.Model,
		"tokens", parsed.Usage.TotalTokens,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return out, nil
}

// SetHTTPClient overrides the HTTP client. Only tests should call this.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.Wrap(client)
}
