package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/ai/openrouter"
)

func newLocal(t *testing.T, handler http.HandlerFunc, cfg LocalConfig) *LocalProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.BaseURL = srv.URL
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	lp := NewLocalProvider(cfg)
	lp.SetHTTPClient(srv.Client())
	return lp
}

func TestLocalProvider_Chat(t *testing.T) {
	var got localRequest
	lp := newLocal(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(openrouter.ChatCompletionResponse{
			Choices: []openrouter.Choice{{Message: openrouter.Message{Role: "assistant", Content: " AC1 services 101 "}}},
		})
	}, LocalConfig{})

	resp, err := lp.Chat(context.Background(), openrouter.ChatRequest{SystemPrompt: "sys", UserPrompt: "which AC?"})
	require.NoError(t, err)
	assert.Equal(t, "AC1 services 101", resp.Content)
	assert.Equal(t, "llama3.2:3b", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "which AC?", got.Messages[1].Content)
}

func TestLocalProvider_ErrorStatus(t *testing.T) {
	lp := newLocal(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}, LocalConfig{})

	_, err := lp.Chat(context.Background(), openrouter.ChatRequest{UserPrompt: "q"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLocalProvider_TracksFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO ai_model_usage").
		WithArgs("respond", "question", "", "llama3.2:3b", "local",
			nil, sqlmock.AnyArg(), sqlmock.AnyArg(), nil, nil, false, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lp := newLocal(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openrouter.ChatCompletionResponse{})
	}, LocalConfig{DB: db, OperationType: "respond"})

	_, err = lp.Chat(context.Background(), openrouter.ChatRequest{UserPrompt: "q"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
