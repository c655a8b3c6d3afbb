package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Time-series tables (written by the sensor data generator)
	v.SetDefault("timeseries.dir", "sensor_outputs")
	v.SetDefault("timeseries.watch", false)

	// Knowledge graph
	v.SetDefault("graph.uri", "neo4j://localhost:7687")
	v.SetDefault("graph.username", "neo4j")
	v.SetDefault("graph.preview_limit", 50)

	// Local database
	v.SetDefault("database.path", "roomq.db")

	// Classification
	v.SetDefault("classifier.strategy", StrategyRules)

	// OpenRouter defaults
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.temperature", 0.0) // Deterministic query generation
	v.SetDefault("openrouter.max_tokens", 1000)

	// Local Inference (Ollama) defaults
	v.SetDefault("local_inference.enabled", false)
	v.SetDefault("local_inference.base_url", "http://localhost:11434")
	v.SetDefault("local_inference.model", "llama3.2:3b")
	v.SetDefault("local_inference.timeout_seconds", 120)

	// Embeddings / semantic fallback
	v.SetDefault("embeddings.base_url", "https://api.openai.com/v1")
	v.SetDefault("embeddings.model", "text-embedding-3-small")
	v.SetDefault("embeddings.dimensions", 1536)
	v.SetDefault("embeddings.top_k", 4)
	v.SetDefault("embeddings.threshold", 0.2)
	v.SetDefault("embeddings.index_stride", 12) // one reading per hour at 5-minute cadence

	// Forecast
	v.SetDefault("forecast.threshold", 0.5)
	v.SetDefault("forecast.timezone", "UTC")

	// Timeouts for external collaborators
	v.SetDefault("timeouts.graph_seconds", 15)
	v.SetDefault("timeouts.vector_seconds", 20)
	v.SetDefault("timeouts.llm_seconds", 30)

	v.SetDefault("ai.max_requests_per_minute", 60)
}

// BindSensitiveEnvVars explicitly binds credentials to the environment variable
// names the rest of the building tooling already uses (.env files).
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("graph.uri", "ROOMQ_GRAPH_URI", "NEO4J_URI")
	v.BindEnv("graph.username", "ROOMQ_GRAPH_USERNAME", "NEO4J_USERNAME")
	v.BindEnv("graph.password", "ROOMQ_GRAPH_PASSWORD", "NEO4J_PASSWORD")
	v.BindEnv("openrouter.api_key", "ROOMQ_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	v.BindEnv("embeddings.api_key", "ROOMQ_EMBEDDINGS_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("database.path", "ROOMQ_DATABASE_PATH")
	v.BindEnv("timeseries.dir", "ROOMQ_TIMESERIES_DIR")
}
