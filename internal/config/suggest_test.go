package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoadSuggestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		viper.Reset()
		cfg := LoadSuggestConfig()

		assert.Equal(t, "gemini-2.0-flash", cfg.Model)
		assert.Equal(t, 20*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 3, cfg.MaxRetries)
		assert.False(t, cfg.Sync)
	})

	t.Run("overrides", func(t *testing.T) {
		viper.Reset()
		viper.Set("suggest.api_key", "key123")
		viper.Set("suggest.model", "gemini-2.5-pro")
		viper.Set("suggest.request_timeout", "5s")
		viper.Set("suggest.max_retries", 1)
		viper.Set("suggest.sync", true)
		defer viper.Reset()

		cfg := LoadSuggestConfig()
		assert.Equal(t, "key123", cfg.APIKey)
		assert.Equal(t, "gemini-2.5-pro", cfg.Model)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 1, cfg.MaxRetries)
		assert.True(t, cfg.Sync)
	})
}
