package config

import (
	"time"

	"github.com/spf13/viper"
)

// SuggestConfig holds settings for the AI category-suggestion pipeline.
type SuggestConfig struct {
	// APIKey authenticates against the text-completion service.
	APIKey string
	// Model is the completion model identifier.
	Model string
	// RequestTimeout bounds a single completion call.
	RequestTimeout time.Duration
	// MaxRetries caps retries on transient completion failures.
	MaxRetries int
	// Sync enables the synchronous debug mode: transaction creation awaits
	// the generator and embeds its diagnostic outcome in the response.
	Sync bool
}

// LoadSuggestConfig returns suggestion pipeline configuration with defaults.
func LoadSuggestConfig() *SuggestConfig {
	viper.SetDefault("suggest.model", "gemini-2.0-flash")
	viper.SetDefault("suggest.request_timeout", 20*time.Second)
	viper.SetDefault("suggest.max_retries", 3)
	viper.SetDefault("suggest.sync", false)

	return &SuggestConfig{
		APIKey:         viper.GetString("suggest.api_key"),
		Model:          viper.GetString("suggest.model"),
		RequestTimeout: viper.GetDuration("suggest.request_timeout"),
		MaxRetries:     viper.GetInt("suggest.max_retries"),
		Sync:           viper.GetBool("suggest.sync"),
	}
}
