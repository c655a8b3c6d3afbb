package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}
	c := NewClient(cfg)
	c.SetHTTPClient(srv.Client())
	return c
}

func completion(content string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:      "gen-1",
		Model:   DefaultModel,
		Choices: []Choice{{Message: Message{Role: "assistant", Content: content}}},
		Usage:   Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func TestClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "k"})
	assert.Equal(t, DefaultModel, c.Model())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	require.NotNil(t, c.config.Temperature)
	assert.Equal(t, 0.0, *c.config.Temperature)
	assert.Equal(t, 1000, *c.config.MaxTokens)
	assert.True(t, c.IsConfigured())
	assert.False(t, NewClient(Config{}).IsConfigured())
}

func TestChat_SendsSystemAndUserPrompt(t *testing.T) {
	var got ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "roomq/classify", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(completion("  {\"action\":\"forecast\"}  "))
	}, Config{OperationType: "classify"})

	resp, err := c.Chat(context.Background(), ChatRequest{SystemPrompt: "sys", UserPrompt: "hello"})
	require.NoError(t, err)

	assert.Equal(t, `{"action":"forecast"}`, resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[1].Content)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestChat_ModelOverride(t *testing.T) {
	var got ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(completion("ok"))
	}, Config{})

	model := "openai/gpt-4o"
	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "q", Model: &model})
	require.NoError(t, err)
	assert.Equal(t, model, got.Model)
	assert.Len(t, got.Messages, 1)
}

func TestChat_NoAPIKey(t *testing.T) {
	_, err := NewClient(Config{}).Chat(context.Background(), ChatRequest{UserPrompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrServiceUnavailable))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestChat_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}, Config{})

	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat_RetriesServiceUnavailable(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(completion("second time lucky"))
	}, Config{})

	resp, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "second time lucky", resp.Content)
	assert.Equal(t, int32(2), calls.Load())
}

func TestChat_EmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatCompletionResponse{})
	}, Config{})

	_, err := c.Chat(context.Background(), ChatRequest{UserPrompt: "q"})
	assert.Error(t, err)
}

func TestChat_TracksUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ai_model_usage").
		WithArgs("answer", "question", "q-1", DefaultModel, "openrouter",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 15,
			sqlmock.AnyArg(), true, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(completion("fine"))
	}, Config{DB: db, OperationType: "answer", EntityType: "question", EntityID: "q-1"})

	_, err = c.Chat(context.Background(), ChatRequest{UserPrompt: "q"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableError(errors.New("API request failed with status 429: slow down")))
	assert.False(t, isRetryableError(errors.New("API request failed with status 400: bad")))
}
