package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/am"
)

func TestFactory_Provider(t *testing.T) {
	tests := []struct {
		name     string
		config   am.Config
		explicit ProviderType
		expected ProviderType
	}{
		{
			name: "explicit provider overrides config",
			config: am.Config{LocalInference: am.LocalInferenceConfig{
				Enabled: true, BaseURL: "http://localhost:11434",
			}},
			explicit: ProviderTypeOpenRouter,
			expected: ProviderTypeOpenRouter,
		},
		{
			name: "local enabled and configured",
			config: am.Config{LocalInference: am.LocalInferenceConfig{
				Enabled: true, BaseURL: "http://localhost:11434",
			}},
			explicit: ProviderTypeAuto,
			expected: ProviderTypeLocal,
		},
		{
			name:     "local enabled but no base URL",
			config:   am.Config{LocalInference: am.LocalInferenceConfig{Enabled: true}},
			explicit: ProviderTypeAuto,
			expected: ProviderTypeOpenRouter,
		},
		{
			name:     "local disabled",
			config:   am.Config{},
			explicit: ProviderTypeAuto,
			expected: ProviderTypeOpenRouter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			f := NewFactory(&cfg, nil, nil).WithProvider(tt.explicit)
			assert.Equal(t, tt.expected, f.Provider())
		})
	}
}

func TestFactory_ClientTypes(t *testing.T) {
	cfg := am.Config{}
	client := NewFactory(&cfg, nil, nil).Client("classify")
	_, ok := client.(*openrouter.Client)
	assert.True(t, ok, "expected bare openrouter client without rate limit")

	cfg.AI.MaxRequestsPerMinute = 60
	cfg.LocalInference = am.LocalInferenceConfig{Enabled: true, BaseURL: "http://localhost:11434", Model: "llama3.2:3b"}
	client = NewFactory(&cfg, nil, nil).Client("classify")
	_, ok = client.(*RateLimitedClient)
	assert.True(t, ok, "expected rate limited wrapper")
}

func TestParseProvider(t *testing.T) {
	for in, want := range map[string]ProviderType{
		"ollama": ProviderTypeLocal,
		"or":     ProviderTypeOpenRouter,
		"":       ProviderTypeAuto,
	} {
		got, err := ParseProvider(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseProvider("anthropic")
	assert.Error(t, err)
}

type countingClient struct{ calls int }

func (c *countingClient) Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	c.calls++
	return &openrouter.ChatResponse{Content: "ok"}, nil
}

func TestRateLimitedClient_RespectsContext(t *testing.T) {
	inner := &countingClient{}
	client := NewRateLimitedClient(inner, NewLimiter(1))

	_, err := client.Chat(context.Background(), openrouter.ChatRequest{UserPrompt: "first"})
	require.NoError(t, err)

	// Second call would wait ~60s for a token
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.Chat(ctx, openrouter.ChatRequest{UserPrompt: "second"})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
