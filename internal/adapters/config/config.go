package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration
type Config struct {
	AI        AIConfig        `envconfig:"AI"`
	Sources   SourcesConfig   `envconfig:"SOURCES"`
	Synthesis SynthesisConfig `envconfig:"SYNTHESIS"`
	Logging   LoggingConfig   `envconfig:"LOGGING"`
}

// AIConfig represents language-model backend configuration
type AIConfig struct {
	OpenAI AIProviderConfig `envconfig:"OPENAI"`
}

// AIProviderConfig represents a single AI provider configuration
type AIProviderConfig struct {
	APIKey    string        `envconfig:"API_KEY" required:"false"`
	Model     string        `envconfig:"MODEL" default:"gpt-4-turbo-preview"`
	Enabled   bool          `envconfig:"ENABLED" default:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"60s"`
	MaxTokens int           `envconfig:"MAX_TOKENS" default:"1000"`
}

// SourcesConfig represents data source fetch parameters
type SourcesConfig struct {
	UserAgent           string        `envconfig:"SOURCES_USER_AGENT" default:"Mozilla/5.0"`
	FetchTimeout        time.Duration `envconfig:"SOURCES_FETCH_TIMEOUT" default:"30s"`
	PriceHistoryDays    int           `envconfig:"SOURCES_PRICE_HISTORY_DAYS" default:"180"`
	InsiderLookbackDays int           `envconfig:"SOURCES_INSIDER_LOOKBACK_DAYS" default:"30"`
	MaxNewsItems        int           `envconfig:"SOURCES_MAX_NEWS_ITEMS" default:"20"`
}

// SynthesisConfig bounds the prompt so its size stays deterministic
// regardless of how much data the sources returned
type SynthesisConfig struct {
	MaxPricePoints   int `envconfig:"SYNTHESIS_MAX_PRICE_POINTS" default:"10"`
	MaxInsiderTrades int `envconfig:"SYNTHESIS_MAX_INSIDER_TRADES" default:"5"`
	MaxNewsItems     int `envconfig:"SYNTHESIS_MAX_NEWS_ITEMS" default:"5"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" default:""`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.AI.OpenAI.Enabled && c.AI.OpenAI.APIKey == "" {
		return fmt.Errorf("AI provider is enabled but no API key is configured")
	}

	if c.Sources.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Sources.PriceHistoryDays < 1 {
		return fmt.Errorf("price history window must be at least 1 day")
	}
	if c.Sources.InsiderLookbackDays < 1 {
		return fmt.Errorf("insider lookback must be at least 1 day")
	}

	if c.Synthesis.MaxPricePoints < 1 || c.Synthesis.MaxInsiderTrades < 0 || c.Synthesis.MaxNewsItems < 0 {
		return fmt.Errorf("synthesis prompt bounds must be positive")
	}

	return nil
}
