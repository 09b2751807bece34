package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Matiks", cfg.Query)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, 50, cfg.FetchLimit)
	assert.Equal(t, 60, cfg.RunEveryMinutes)
	assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, StorageLocal, cfg.StorageBackend)
	assert.Nil(t, cfg.NeutralThreshold)
	assert.Nil(t, cfg.AppleCountries)
	assert.True(t, cfg.LinkedInPublicSearch)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MONITOR_QUERY", "Acme")
	t.Setenv("FETCH_LIMIT", "10")
	t.Setenv("RETRY_BASE_DELAY", "3")
	t.Setenv("NEUTRAL_THRESHOLD", "0.1")
	t.Setenv("APPLE_COUNTRIES", " US, in ,,gb")
	t.Setenv("TEAMS_WEBHOOK_URL", "https://example.com/hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Acme", cfg.Query)
	assert.Equal(t, 10, cfg.FetchLimit)
	assert.Equal(t, 3*time.Second, cfg.RetryBaseDelay)
	require.NotNil(t, cfg.NeutralThreshold)
	assert.Equal(t, 0.1, *cfg.NeutralThreshold)
	assert.Equal(t, []string{"us", "in", "gb"}, cfg.AppleCountries)
	assert.True(t, cfg.NotificationsEnabled())
}

func TestValidate(t *testing.T) {
	threshold := 1.5

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty query", func(c *Config) { c.Query = " " }},
		{"zero limit", func(c *Config) { c.FetchLimit = 0 }},
		{"zero interval", func(c *Config) { c.RunEveryMinutes = 0 }},
		{"threshold out of range", func(c *Config) { c.NeutralThreshold = &threshold }},
		{"unknown backend", func(c *Config) { c.StorageBackend = "s3" }},
		{"azure without account", func(c *Config) { c.StorageBackend = StorageAzure }},
		{"email without smtp", func(c *Config) { c.NotificationEmail = "team@example.com" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
