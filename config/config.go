package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Search    SearchConfig
	Store     StoreConfig
	Matching  MatchingConfig
	Prompts   PromptsConfig
	RateLimit RateLimitConfig
	Refresh   RefreshConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenAIConfig holds chat-completions configuration.
// APIKey is optional; browsers usually send their own.
type OpenAIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Debug             bool          `mapstructure:"debug"`
}

// SearchConfig holds web search configuration
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // "auto", "serpapi" or "synthetic"
	SerpAPIKey string        `mapstructure:"serpapi_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// StoreConfig holds product and history storage configuration
type StoreConfig struct {
	Type         string `mapstructure:"type"` // "memory" or "postgres"
	DatabaseURL  string `mapstructure:"database_url"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// MatchingConfig selects how command product names are matched to the store
type MatchingConfig struct {
	Strict bool `mapstructure:"strict"`
}

// PromptsConfig holds the system prompts sent with analyzer requests
type PromptsConfig struct {
	Competitor string `mapstructure:"competitor"`
	Avito      string `mapstructure:"avito"`
	Edit       string `mapstructure:"edit"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// RefreshConfig holds bulk refresh configuration
type RefreshConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadEnvFile loads .env from the working directory when it exists.
// Variables already present in the environment are not overridden.
func LoadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricescout/")

	// PRICESCOUT_OPENAI_API_KEY -> openai.api_key
	v.SetEnvPrefix("PRICESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost*"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o")
	v.SetDefault("openai.timeout", "60s")
	v.SetDefault("openai.max_retries", 3)
	v.SetDefault("openai.requests_per_second", 5.0)
	v.SetDefault("openai.debug", false)

	// Search defaults
	v.SetDefault("search.provider", "auto")
	v.SetDefault("search.serpapi_key", "")
	v.SetDefault("search.base_url", "https://serpapi.com")
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.cache_ttl", "30m")

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.history_limit", 100)

	v.SetDefault("matching.strict", false)

	// Prompts the browser ships with
	v.SetDefault("prompts.competitor", "Проанализируй результаты поиска цен и найди минимальную цену товара у конкурентов.")
	v.SetDefault("prompts.avito", "Проанализируй результаты поиска на Avito и найди минимальную б/у цену товара.")
	v.SetDefault("prompts.edit", "Помоги отредактировать данные товара согласно команде пользователя.")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("refresh.concurrency", 3)

	v.SetDefault("logging.level", "info")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenAI.APIKey != "" && !strings.HasPrefix(config.OpenAI.APIKey, "sk-") {
		return fmt.Errorf("OpenAI API key must start with \"sk-\" (PRICESCOUT_OPENAI_API_KEY)")
	}

	if config.OpenAI.MaxRetries < 1 {
		return fmt.Errorf("openai.max_retries must be at least 1, got: %d", config.OpenAI.MaxRetries)
	}

	switch config.Search.Provider {
	case "auto", "synthetic":
	case "serpapi":
		if config.Search.SerpAPIKey == "" {
			return fmt.Errorf("SerpAPI key is required when search provider is 'serpapi'")
		}
	default:
		return fmt.Errorf("search provider must be 'auto', 'serpapi' or 'synthetic', got: %s", config.Search.Provider)
	}

	if config.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got: %d", config.Search.MaxResults)
	}

	if config.Store.Type != "memory" && config.Store.Type != "postgres" {
		return fmt.Errorf("store type must be 'memory' or 'postgres', got: %s", config.Store.Type)
	}

	if config.Store.Type == "postgres" && config.Store.DatabaseURL == "" {
		return fmt.Errorf("database URL is required when store type is 'postgres'")
	}

	if config.Store.HistoryLimit <= 0 {
		return fmt.Errorf("store.history_limit must be positive, got: %d", config.Store.HistoryLimit)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	if config.Refresh.Concurrency <= 0 {
		return fmt.Errorf("refresh.concurrency must be positive, got: %d", config.Refresh.Concurrency)
	}

	return nil
}

// UseSerpAPI reports whether real web search should be used
func (c *Config) UseSerpAPI() bool {
	switch c.Search.Provider {
	case "serpapi":
		return true
	case "auto":
		return c.Search.SerpAPIKey != ""
	}
	return false
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
