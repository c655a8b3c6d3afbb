package am

import (
	"time"

	"github.com/teranos/roomq/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Timeseries.Dir == "" {
		return errors.New("timeseries.dir cannot be empty")
	}

	switch c.Classifier.Strategy {
	case StrategyRules, StrategyModel:
	default:
		return errors.Newf("classifier.strategy must be %q or %q, got %q",
			StrategyRules, StrategyModel, c.Classifier.Strategy)
	}

	// Threshold is inclusive on both ends
	if c.Forecast.Threshold < 0 || c.Forecast.Threshold > 1 {
		return errors.Newf("forecast.threshold must be within [0, 1], got %f", c.Forecast.Threshold)
	}
	if c.Forecast.Timezone != "" {
		if _, err := time.LoadLocation(c.Forecast.Timezone); err != nil {
			return errors.Wrapf(err, "forecast.timezone %q is not a known zone", c.Forecast.Timezone)
		}
	}

	// Every external call needs a bound, so zero is not "unlimited" here
	if c.Timeouts.GraphSeconds <= 0 {
		return errors.Newf("timeouts.graph_seconds must be > 0, got %d", c.Timeouts.GraphSeconds)
	}
	if c.Timeouts.VectorSeconds <= 0 {
		return errors.Newf("timeouts.vector_seconds must be > 0, got %d", c.Timeouts.VectorSeconds)
	}
	if c.Timeouts.LLMSeconds <= 0 {
		return errors.Newf("timeouts.llm_seconds must be > 0, got %d", c.Timeouts.LLMSeconds)
	}

	if c.LocalInference.Enabled {
		if c.LocalInference.BaseURL == "" {
			return errors.New("local_inference.base_url cannot be empty when enabled")
		}
		if c.LocalInference.Model == "" {
			return errors.New("local_inference.model cannot be empty when enabled")
		}
		if c.LocalInference.TimeoutSeconds <= 0 {
			return errors.Newf("local_inference.timeout_seconds must be > 0, got %d", c.LocalInference.TimeoutSeconds)
		}
	}

	if c.Embeddings.TopK < 0 {
		return errors.Newf("embeddings.top_k must be >= 0, got %d", c.Embeddings.TopK)
	}
	if c.Embeddings.Threshold < 0 || c.Embeddings.Threshold > 1 {
		return errors.Newf("embeddings.threshold must be within [0, 1], got %f", c.Embeddings.Threshold)
	}
	if c.Embeddings.IndexStride < 0 {
		return errors.Newf("embeddings.index_stride must be >= 0, got %d", c.Embeddings.IndexStride)
	}

	if c.Graph.PreviewLimit < 0 {
		return errors.Newf("graph.preview_limit must be >= 0, got %d", c.Graph.PreviewLimit)
	}

	// 0 = unlimited
	if c.AI.MaxRequestsPerMinute < 0 {
		return errors.Newf("ai.max_requests_per_minute must be >= 0, got %d", c.AI.MaxRequestsPerMinute)
	}

	return nil
}
