package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/ai/provider"
	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
)

const responderPrompt = `You're a smart assistant for building management.
Answer the following user question based on building layout and sensor data:`

// LLMResponder answers with a general-purpose language model and no
// structured grounding
type LLMResponder struct {
	client  provider.AIClient
	timeout time.Duration
}

// NewLLMResponder creates an LLMResponder. timeout bounds each model call.
func NewLLMResponder(client provider.AIClient, timeout time.Duration) *LLMResponder {
	return &LLMResponder{client: client, timeout: timeout}
}

// Respond returns the model's reply
func (r *LLMResponder) Respond(ctx context.Context, question string) (string, error) {
	if r.client == nil {
		return "", errors.Mark(errors.New("no language model configured"), errors.ErrServiceUnavailable)
	}
	resp, err := deadline.Run(ctx, "general answer", r.timeout, func(ctx context.Context) (*openrouter.ChatResponse, error) {
		return r.client.Chat(ctx, openrouter.ChatRequest{
			SystemPrompt: responderPrompt,
			UserPrompt:   question,
		})
	})
	if err != nil {
		return "", errors.Wrap(err, "general answer failed")
	}
	return strings.TrimSpace(resp.Content), nil
}

var _ Responder = (*LLMResponder)(nil)
