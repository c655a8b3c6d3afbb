package am

import (
	"time"
	_ "time/tzdata" // forecast.timezone must resolve on hosts without zoneinfo
)

// Config represents the roomq configuration
type Config struct {
	Timeseries     TimeseriesConfig     `mapstructure:"timeseries"`
	Graph          GraphConfig          `mapstructure:"graph"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Classifier     ClassifierConfig     `mapstructure:"classifier"`
	OpenRouter     OpenRouterConfig     `mapstructure:"openrouter"`
	LocalInference LocalInferenceConfig `mapstructure:"local_inference"`
	Embeddings     EmbeddingsConfig     `mapstructure:"embeddings"`
	Forecast       ForecastConfig       `mapstructure:"forecast"`
	Timeouts       TimeoutsConfig       `mapstructure:"timeouts"`
	AI             AIConfig             `mapstructure:"ai"`
}

// TimeseriesConfig configures the per-room CSV tables used for tabular fallback and forecasting
type TimeseriesConfig struct {
	Dir   string `mapstructure:"dir"`   // Directory of room_<id>_timeseries.csv files
	Watch bool   `mapstructure:"watch"` // Reload tables when files in Dir change
}

// GraphConfig configures the Neo4j knowledge store
type GraphConfig struct {
	URI          string `mapstructure:"uri"`           // e.g. "neo4j://localhost:7687"
	Username     string `mapstructure:"username"`      // NEO4J_USERNAME
	Password     string `mapstructure:"password"`      // NEO4J_PASSWORD
	Database     string `mapstructure:"database"`      // empty = server default database
	PreviewLimit int    `mapstructure:"preview_limit"` // edges returned by `roomq graph preview` (default: 50)
}

// DatabaseConfig configures the local SQLite database (vector index + usage tracking)
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ClassifierConfig selects the intent classification strategy
type ClassifierConfig struct {
	Strategy string `mapstructure:"strategy"` // "rules" or "model"
}

// OpenRouterConfig configures OpenRouter.ai API access
type OpenRouterConfig struct {
	APIKey      string   `mapstructure:"api_key"`     // OpenRouter API key
	BaseURL     string   `mapstructure:"base_url"`    // Override for OpenAI-compatible gateways
	Model       string   `mapstructure:"model"`       // Default model (e.g., "openai/gpt-4o-mini")
	Temperature *float64 `mapstructure:"temperature"` // Sampling temperature (nil = default 0)
	MaxTokens   *int     `mapstructure:"max_tokens"`  // Maximum tokens per request (nil = default 1000)
}

// LocalInferenceConfig configures local model inference (Ollama, LocalAI, etc.)
type LocalInferenceConfig struct {
	Enabled        bool   `mapstructure:"enabled"`         // Use local inference instead of OpenRouter
	BaseURL        string `mapstructure:"base_url"`        // e.g., "http://localhost:11434" for Ollama
	Model          string `mapstructure:"model"`           // e.g., "llama3.2:3b"
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // HTTP timeout in seconds
}

// EmbeddingsConfig configures the embedding endpoint and the semantic fallback search
type EmbeddingsConfig struct {
	BaseURL     string  `mapstructure:"base_url"`     // OpenAI-compatible API root, e.g. "https://api.openai.com/v1"
	APIKey      string  `mapstructure:"api_key"`      // OPENAI_API_KEY
	Model       string  `mapstructure:"model"`        // e.g. "text-embedding-3-small"
	Dimensions  int     `mapstructure:"dimensions"`   // Vector size stored alongside each embedding
	TopK        int     `mapstructure:"top_k"`        // Readings handed to the answering model
	Threshold   float64 `mapstructure:"threshold"`    // Minimum similarity for a hit (0..1)
	IndexStride int     `mapstructure:"index_stride"` // Embed every Nth sample when indexing
}

// ForecastConfig configures the occupancy forecast
type ForecastConfig struct {
	Threshold float64 `mapstructure:"threshold"` // "Likely occupied" probability cut-off, inclusive
	Timezone  string  `mapstructure:"timezone"`  // IANA zone used to resolve the next hour (default: UTC)
}

// TimeoutsConfig bounds every call to an external collaborator
type TimeoutsConfig struct {
	GraphSeconds  int `mapstructure:"graph_seconds"`
	VectorSeconds int `mapstructure:"vector_seconds"`
	LLMSeconds    int `mapstructure:"llm_seconds"`
}

// AIConfig holds limits shared by every LLM provider
type AIConfig struct {
	MaxRequestsPerMinute int `mapstructure:"max_requests_per_minute"` // 0 = unlimited
}

// Classifier strategies
const (
	StrategyRules = "rules"
	StrategyModel = "model"
)

// File system constants
const (
	DefaultDirPermissions = 0755 // Standard directory permissions (rwxr-xr-x)
)

// Graph returns the graph timeout as a duration
func (t TimeoutsConfig) Graph() time.Duration { return seconds(t.GraphSeconds) }

// Vector returns the vector index timeout as a duration
func (t TimeoutsConfig) Vector() time.Duration { return seconds(t.VectorSeconds) }

// LLM returns the language-model timeout as a duration
func (t TimeoutsConfig) LLM() time.Duration { return seconds(t.LLMSeconds) }

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Location resolves the forecast timezone, falling back to UTC
func (f ForecastConfig) Location() *time.Location {
	if f.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Redacted returns a copy with credentials masked, for display
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Graph.Password = mask(c.Graph.Password)
	c.OpenRouter.APIKey = mask(c.OpenRouter.APIKey)
	c.Embeddings.APIKey = mask(c.Embeddings.APIKey)
	return c
}
