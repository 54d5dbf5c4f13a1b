// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	GitHub    GitHubConfig    `mapstructure:"github"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Vector    VectorConfig    `mapstructure:"vector"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

type GitHubConfig struct {
	Token      string        `mapstructure:"token"`
	BaseURL    string        `mapstructure:"base_url"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

type EmbeddingConfig struct {
	Provider          string        `mapstructure:"provider"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	BaseURL           string        `mapstructure:"base_url"`
	Dimensions        int           `mapstructure:"dimensions"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

type VectorConfig struct {
	Addr       string `mapstructure:"addr"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
}

type PipelineConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.GitHub.Token == "" {
		warnings = append(warnings, "github.token is empty; unauthenticated requests will be rejected")
	}
	if c.Embedding.Provider != "" && c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("embedding provider '%s' is configured but api_key is empty", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		warnings = append(warnings, "embedding.dimensions is not set; the vector collection cannot be sized")
	}
	if c.Pipeline.BatchSize < 0 {
		warnings = append(warnings, fmt.Sprintf("pipeline.batch_size %d is negative", c.Pipeline.BatchSize))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing.sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("PRISM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.max_retries", 3)
	v.SetDefault("embedding.requests_per_minute", 60)
	v.SetDefault("vector.collection", "github_prs")
	v.SetDefault("pipeline.batch_size", 100)
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
