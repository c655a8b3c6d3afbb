package provider

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/errors"
)

// NewLimiter allows perMinute requests per minute with a burst of one
func NewLimiter(perMinute int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// RateLimitedClient waits for a limiter token before each call
type RateLimitedClient struct {
	client  AIClient
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps client with limiter
func NewRateLimitedClient(client AIClient, limiter *rate.Limiter) *RateLimitedClient {
	return &RateLimitedClient{client: client, limiter: limiter}
}

// Chat implements AIClient
func (r *RateLimitedClient) Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limit wait")
	}
	return r.client.Chat(ctx, req)
}
