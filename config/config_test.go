package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable the tests touch; viper treats empty values as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PRICESCOUT_SERVER_PORT",
		"PRICESCOUT_SERVER_ENVIRONMENT",
		"PRICESCOUT_SERVER_ALLOWED_ORIGINS",
		"PRICESCOUT_OPENAI_API_KEY",
		"PRICESCOUT_OPENAI_MAX_RETRIES",
		"PRICESCOUT_OPENAI_TIMEOUT",
		"PRICESCOUT_SEARCH_PROVIDER",
		"PRICESCOUT_SEARCH_SERPAPI_KEY",
		"PRICESCOUT_SEARCH_CACHE_TTL",
		"PRICESCOUT_STORE_TYPE",
		"PRICESCOUT_STORE_DATABASE_URL",
		"PRICESCOUT_STORE_HISTORY_LIMIT",
		"PRICESCOUT_MATCHING_STRICT",
		"PRICESCOUT_RATELIMIT_PER_IP",
		"PRICESCOUT_REFRESH_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.OpenAI.BaseURL != "https://api.openai.com/v1" {
			t.Errorf("OpenAI.BaseURL = %s", cfg.OpenAI.BaseURL)
		}
		if cfg.OpenAI.Timeout != 60*time.Second {
			t.Errorf("OpenAI.Timeout = %v, want 60s", cfg.OpenAI.Timeout)
		}
		if cfg.OpenAI.MaxRetries != 3 {
			t.Errorf("OpenAI.MaxRetries = %d, want 3", cfg.OpenAI.MaxRetries)
		}
		if cfg.Search.CacheTTL != 30*time.Minute {
			t.Errorf("Search.CacheTTL = %v, want 30m", cfg.Search.CacheTTL)
		}
		if cfg.Store.Type != "memory" {
			t.Errorf("Store.Type = %s, want memory", cfg.Store.Type)
		}
		if cfg.Store.HistoryLimit != 100 {
			t.Errorf("Store.HistoryLimit = %d, want 100", cfg.Store.HistoryLimit)
		}
		if cfg.Matching.Strict {
			t.Error("Matching.Strict = true, want false")
		}
		if !strings.Contains(cfg.Prompts.Avito, "Avito") {
			t.Errorf("Prompts.Avito = %q", cfg.Prompts.Avito)
		}
		if cfg.Refresh.Concurrency != 3 {
			t.Errorf("Refresh.Concurrency = %d, want 3", cfg.Refresh.Concurrency)
		}
		if cfg.UseSerpAPI() {
			t.Error("UseSerpAPI() = true without a key")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRICESCOUT_SERVER_PORT", "9090")
		t.Setenv("PRICESCOUT_SERVER_ENVIRONMENT", "production")
		t.Setenv("PRICESCOUT_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")
		t.Setenv("PRICESCOUT_OPENAI_API_KEY", "sk-server")
		t.Setenv("PRICESCOUT_OPENAI_TIMEOUT", "30s")
		t.Setenv("PRICESCOUT_SEARCH_SERPAPI_KEY", "serp-key")
		t.Setenv("PRICESCOUT_STORE_TYPE", "postgres")
		t.Setenv("PRICESCOUT_STORE_DATABASE_URL", "postgres://localhost/pricescout")
		t.Setenv("PRICESCOUT_STORE_HISTORY_LIMIT", "50")
		t.Setenv("PRICESCOUT_MATCHING_STRICT", "true")
		t.Setenv("PRICESCOUT_RATELIMIT_PER_IP", "200")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Error("IsProduction() = false, want true")
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
			t.Errorf("Server.AllowedOrigins = %v", cfg.Server.AllowedOrigins)
		}
		if cfg.OpenAI.APIKey != "sk-server" {
			t.Errorf("OpenAI.APIKey = %s, want sk-server", cfg.OpenAI.APIKey)
		}
		if cfg.OpenAI.Timeout != 30*time.Second {
			t.Errorf("OpenAI.Timeout = %v, want 30s", cfg.OpenAI.Timeout)
		}
		if !cfg.UseSerpAPI() {
			t.Error("UseSerpAPI() = false with a key in auto mode")
		}
		if cfg.Store.Type != "postgres" || cfg.Store.DatabaseURL != "postgres://localhost/pricescout" {
			t.Errorf("Store = %+v", cfg.Store)
		}
		if cfg.Store.HistoryLimit != 50 {
			t.Errorf("Store.HistoryLimit = %d, want 50", cfg.Store.HistoryLimit)
		}
		if !cfg.Matching.Strict {
			t.Error("Matching.Strict = false, want true")
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
	})

	t.Run("fails validation for malformed server key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRICESCOUT_OPENAI_API_KEY", "pk-wrong")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for malformed key")
		}
	})

	t.Run("fails validation for invalid store type", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRICESCOUT_STORE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid store type")
		}
	})

	t.Run("fails validation when database URL missing for postgres", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PRICESCOUT_STORE_TYPE", "postgres")

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "database URL is required") {
			t.Errorf("Load() error = %v, want missing database URL", err)
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		t.Chdir(t.TempDir())

		if err := LoadEnvFile(); err != nil {
			t.Errorf("LoadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables from .env file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		envContent := `
# Comment line
PRICESCOUT_TEST_VAR_1=value1
PRICESCOUT_TEST_VAR_2=value2
# PRICESCOUT_TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() {
			os.Unsetenv("PRICESCOUT_TEST_VAR_1")
			os.Unsetenv("PRICESCOUT_TEST_VAR_2")
		})

		if err := LoadEnvFile(); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("PRICESCOUT_TEST_VAR_1") != "value1" {
			t.Errorf("PRICESCOUT_TEST_VAR_1 = %s, want value1", os.Getenv("PRICESCOUT_TEST_VAR_1"))
		}
		if os.Getenv("PRICESCOUT_TEST_VAR_2") != "value2" {
			t.Errorf("PRICESCOUT_TEST_VAR_2 = %s, want value2", os.Getenv("PRICESCOUT_TEST_VAR_2"))
		}
		if os.Getenv("PRICESCOUT_TEST_COMMENTED") != "" {
			t.Error("PRICESCOUT_TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PRICESCOUT_TEST_OVERRIDE", "existing-value")

		if err := os.WriteFile(".env", []byte("PRICESCOUT_TEST_OVERRIDE=new-value"), 0o644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := LoadEnvFile(); err != nil {
			t.Fatalf("LoadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("PRICESCOUT_TEST_OVERRIDE"); got != "existing-value" {
			t.Errorf("PRICESCOUT_TEST_OVERRIDE = %s, want existing-value (should not override)", got)
		}
	})
}

func validConfig() *Config {
	return &Config{
		OpenAI:    OpenAIConfig{MaxRetries: 3},
		Search:    SearchConfig{Provider: "auto", MaxResults: 5},
		Store:     StoreConfig{Type: "memory", HistoryLimit: 100},
		RateLimit: RateLimitConfig{PerIP: 60},
		Refresh:   RefreshConfig{Concurrency: 3},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"valid server key", func(c *Config) { c.OpenAI.APIKey = "sk-abc" }, false},
		{"malformed server key", func(c *Config) { c.OpenAI.APIKey = "abc" }, true},
		{"zero retries", func(c *Config) { c.OpenAI.MaxRetries = 0 }, true},
		{"serpapi without key", func(c *Config) { c.Search.Provider = "serpapi" }, true},
		{"serpapi with key", func(c *Config) { c.Search.Provider = "serpapi"; c.Search.SerpAPIKey = "k" }, false},
		{"unknown provider", func(c *Config) { c.Search.Provider = "bing" }, true},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }, true},
		{"invalid store type", func(c *Config) { c.Store.Type = "sqlite" }, true},
		{"postgres without URL", func(c *Config) { c.Store.Type = "postgres" }, true},
		{"postgres with URL", func(c *Config) { c.Store.Type = "postgres"; c.Store.DatabaseURL = "postgres://x" }, false},
		{"zero history limit", func(c *Config) { c.Store.HistoryLimit = 0 }, true},
		{"zero per-ip limit", func(c *Config) { c.RateLimit.PerIP = 0 }, true},
		{"zero concurrency", func(c *Config) { c.Refresh.Concurrency = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUseSerpAPI(t *testing.T) {
	tests := []struct {
		provider string
		key      string
		want     bool
	}{
		{"auto", "", false},
		{"auto", "k", true},
		{"serpapi", "k", true},
		{"synthetic", "k", false},
	}

	for _, tt := range tests {
		cfg := &Config{Search: SearchConfig{Provider: tt.provider, SerpAPIKey: tt.key}}
		if got := cfg.UseSerpAPI(); got != tt.want {
			t.Errorf("UseSerpAPI(%s, %q) = %v, want %v", tt.provider, tt.key, got, tt.want)
		}
	}
}
