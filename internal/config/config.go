package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageAzure = "azure"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port      string
	LogLevel  string
	LogFormat string

	// Cycle configuration
	Query           string
	OutputDir       string
	FetchLimit      int
	RunEveryMinutes int
	RetryBaseDelay  time.Duration
	UseDemoData     bool

	// Scoring configuration
	LexiconFile      string
	NeutralThreshold *float64 // overrides the lexicon threshold when set

	// Storage configuration
	StorageBackend   string
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Source credentials and identifiers
	RedditClientID       string
	RedditClientSecret   string
	TwitterBearerToken   string
	LinkedInAccessToken  string
	LinkedInPublicSearch bool
	GooglePlayAppID      string
	GooglePlayFeedURL    string
	AppleAppID           string
	AppleCountries       []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Query:           getEnv("MONITOR_QUERY", "Matiks"),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		FetchLimit:      getIntEnv("FETCH_LIMIT", 50),
		RunEveryMinutes: getIntEnv("RUN_EVERY_MINUTES", 60),
		RetryBaseDelay:  getDurationEnv("RETRY_BASE_DELAY", 2*time.Second),
		UseDemoData:     getBoolEnv("USE_DEMO_DATA", false),

		LexiconFile:      getEnv("LEXICON_FILE", ""),
		NeutralThreshold: getOptionalFloatEnv("NEUTRAL_THRESHOLD"),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "matiks-monitor"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		RedditClientID:       getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret:   getEnv("REDDIT_CLIENT_SECRET", ""),
		TwitterBearerToken:   getEnv("TWITTER_BEARER_TOKEN", ""),
		LinkedInAccessToken:  getEnv("LINKEDIN_ACCESS_TOKEN", ""),
		LinkedInPublicSearch: getBoolEnv("LINKEDIN_PUBLIC_SEARCH", true),
		GooglePlayAppID:      getEnv("GOOGLE_PLAY_APP_ID", "com.matiks.app"),
		GooglePlayFeedURL:    getEnv("GOOGLE_PLAY_FEED_URL", ""),
		AppleAppID:           getEnv("APPLE_APP_ID", "6738620563"),
		AppleCountries:       getCountriesEnv("APPLE_COUNTRIES"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration; callers re-run it after applying flag overrides
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("MONITOR_QUERY must not be empty")
	}

	if c.FetchLimit < 1 {
		return fmt.Errorf("FETCH_LIMIT must be at least 1")
	}

	if c.RunEveryMinutes < 1 {
		return fmt.Errorf("RUN_EVERY_MINUTES must be at least 1")
	}

	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("RETRY_BASE_DELAY must not be negative")
	}

	if c.NeutralThreshold != nil && (*c.NeutralThreshold < 0 || *c.NeutralThreshold >= 1) {
		return fmt.Errorf("NEUTRAL_THRESHOLD must be in [0,1)")
	}

	switch c.StorageBackend {
	case StorageLocal:
		if c.OutputDir == "" {
			return fmt.Errorf("OUTPUT_DIR is required for local storage")
		}
	case StorageAzure:
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is azure")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'local' or 'azure'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// NotificationsEnabled reports whether any report channel is configured
func (c *Config) NotificationsEnabled() bool {
	return c.TeamsWebhookURL != "" || c.NotificationEmail != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getOptionalFloatEnv(key string) *float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// getDurationEnv accepts Go durations ("1500ms") or plain seconds ("2")
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}

// getCountriesEnv reads a comma-separated storefront list; empty or "auto" means the default set
func getCountriesEnv(key string) []string {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if value == "" || value == "auto" {
		return nil
	}

	var countries []string
	for _, c := range strings.Split(value, ",") {
		if c = strings.TrimSpace(c); c != "" {
			countries = append(countries, c)
		}
	}
	return countries
}
