// Package provider selects and builds the language-model client used by the
// classifier, the query translator, the semantic answerer and the general
// responder.
package provider

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/roomq/ai/openrouter"
	"github.com/teranos/roomq/am"
	"github.com/teranos/roomq/logger"
)

// AIClient is the chat interface every provider implements
type AIClient interface {
	Chat(ctx context.Context, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// Factory builds AI clients that share one provider choice and one rate
// limiter, so every cascade stage draws from the same request budget
type Factory struct {
	cfg      *am.Config
	db       *sql.DB
	log      *zap.SugaredLogger
	provider ProviderType
	limiter  *rate.Limiter
}

// NewFactory creates a Factory. db may be nil, which disables usage tracking.
func NewFactory(cfg *am.Config, db *sql.DB, log *zap.SugaredLogger) *Factory {
	f := &Factory{
		cfg:      cfg,
		db:       db,
		log:      logger.OrNop(log),
		provider: ProviderTypeAuto,
	}
	if rpm := cfg.AI.MaxRequestsPerMinute; rpm > 0 {
		f.limiter = NewLimiter(rpm)
	}
	return f
}

// WithProvider forces a provider instead of auto-selection
func (f *Factory) WithProvider(p ProviderType) *Factory {
	f.provider = p
	return f
}

// Provider resolves auto-selection to the provider that will be used
func (f *Factory) Provider() ProviderType {
	switch f.provider {
	case ProviderTypeLocal, ProviderTypeOpenRouter:
		return f.provider
	}
	if f.cfg.LocalInference.Enabled && f.cfg.LocalInference.BaseURL != "" {
		return ProviderTypeLocal
	}
	return ProviderTypeOpenRouter
}

// Client returns a client tagged with operationType for usage tracking
// (e.g. "classify", "translate", "answer", "respond")
func (f *Factory) Client(operationType string) AIClient {
	var client AIClient
	switch f.Provider() {
	case ProviderTypeLocal:
		client = NewLocalProvider(LocalConfig{
			BaseURL:        f.cfg.LocalInference.BaseURL,
			Model:          f.cfg.LocalInference.Model,
			TimeoutSeconds: f.cfg.LocalInference.TimeoutSeconds,
			DB:             f.db,
			Logger:         f.log.Named("local"),
			OperationType:  operationType,
		})
	default:
		client = openrouter.NewClient(openrouter.Config{
			APIKey:        f.cfg.OpenRouter.APIKey,
			BaseURL:       f.cfg.OpenRouter.BaseURL,
			Model:         f.cfg.OpenRouter.Model,
			Temperature:   f.cfg.OpenRouter.Temperature,
			MaxTokens:     f.cfg.OpenRouter.MaxTokens,
			Logger:        f.log.Named("openrouter"),
			DB:            f.db,
			OperationType: operationType,
			EntityType:    "question",
		})
	}

	if f.limiter != nil {
		client = &RateLimitedClient{client: client, limiter: f.limiter}
	}
	return client
}

// Verify interfaces are implemented
var (
	_ AIClient = (*openrouter.Client)(nil)
	_ AIClient = (*LocalProvider)(nil)
	_ AIClient = (*RateLimitedClient)(nil)
)
