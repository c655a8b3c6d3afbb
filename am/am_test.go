package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without loading user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "sensor_outputs", cfg.Timeseries.Dir)
	assert.Equal(t, StrategyRules, cfg.Classifier.Strategy)
	assert.Equal(t, 0.5, cfg.Forecast.Threshold)
	assert.Equal(t, 50, cfg.Graph.PreviewLimit)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.LLM())
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Graph())
	assert.Equal(t, time.UTC, cfg.Forecast.Location())
	require.NotNil(t, cfg.OpenRouter.Temperature)
	assert.Equal(t, 0.0, *cfg.OpenRouter.Temperature)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	content := `
[timeseries]
dir = "/data/sensors"
watch = true

[classifier]
strategy = "model"

[forecast]
threshold = 0.6
timezone = "Europe/Amsterdam"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/sensors", cfg.Timeseries.Dir)
	assert.True(t, cfg.Timeseries.Watch)
	assert.Equal(t, StrategyModel, cfg.Classifier.Strategy)
	assert.Equal(t, 0.6, cfg.Forecast.Threshold)
	assert.Equal(t, "Europe/Amsterdam", cfg.Forecast.Location().String())
	// untouched sections keep defaults
	assert.Equal(t, 20, cfg.Timeouts.VectorSeconds)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestBindSensitiveEnvVars(t *testing.T) {
	t.Setenv("NEO4J_URI", "neo4j+s://graph.example:7687")
	t.Setenv("NEO4J_PASSWORD", "secret")

	v := viper.New()
	BindSensitiveEnvVars(v)
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, "neo4j+s://graph.example:7687", cfg.Graph.URI)
	assert.Equal(t, "secret", cfg.Graph.Password)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ROOMQ_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("ROOMQ_TEST_DOTENV") })

	LoadDotEnv(envFile, filepath.Join(dir, "missing.env"))
	assert.Equal(t, "loaded", os.Getenv("ROOMQ_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := LoadWithViper(v)
		require.NoError(t, err)
		return *cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "threshold 1 is valid", mutate: func(c *Config) { c.Forecast.Threshold = 1 }, wantErr: false},
		{name: "threshold above 1 is invalid", mutate: func(c *Config) { c.Forecast.Threshold = 1.5 }, wantErr: true},
		{name: "negative threshold is invalid", mutate: func(c *Config) { c.Forecast.Threshold = -0.1 }, wantErr: true},
		{name: "unknown strategy is invalid", mutate: func(c *Config) { c.Classifier.Strategy = "magic" }, wantErr: true},
		{name: "zero graph timeout is invalid", mutate: func(c *Config) { c.Timeouts.GraphSeconds = 0 }, wantErr: true},
		{name: "zero llm timeout is invalid", mutate: func(c *Config) { c.Timeouts.LLMSeconds = 0 }, wantErr: true},
		{name: "unknown timezone is invalid", mutate: func(c *Config) { c.Forecast.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "empty timeseries dir is invalid", mutate: func(c *Config) { c.Timeseries.Dir = "" }, wantErr: true},
		{name: "zero rate limit is valid (unlimited)", mutate: func(c *Config) { c.AI.MaxRequestsPerMinute = 0 }, wantErr: false},
		{name: "negative rate limit is invalid", mutate: func(c *Config) { c.AI.MaxRequestsPerMinute = -1 }, wantErr: true},
		{
			name: "local inference without model is invalid",
			mutate: func(c *Config) {
				c.LocalInference.Enabled = true
				c.LocalInference.Model = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.Graph.Password = "hunter2"
	cfg.OpenRouter.APIKey = "sk-or-123"

	r := cfg.Redacted()
	assert.Equal(t, "********", r.Graph.Password)
	assert.Equal(t, "********", r.OpenRouter.APIKey)
	assert.Equal(t, "", r.Embeddings.APIKey)
	assert.Equal(t, "hunter2", cfg.Graph.Password, "input is untouched")
}
