// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	Redis     RedisConfig
	DBPath    string
	OpenAI    OpenAIConfig
	Supertone SupertoneConfig
}

// RedisConfig configures the live session store. An empty Addr switches the
// engine to the in-memory store (dev mode).
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	SessionTTL time.Duration
}

// OpenAIConfig covers the moderation, classification, judgment and
// transcription capabilities.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EvalModel      string
	RequestTimeout time.Duration
}

// SupertoneConfig covers text-to-speech. An empty APIKey disables synthesis
// and the engine answers text-only.
type SupertoneConfig struct {
	APIKey         string
	BaseURL        string
	VoiceName      string
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttlMinutes := getEnvInt("SESSION_TTL_MINUTES", 60)
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/dialogue.db"),
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         getEnvInt("REDIS_DB", 0),
			KeyPrefix:  getEnv("SESSION_KEY_PREFIX", "session:"),
			SessionTTL: time.Duration(ttlMinutes) * time.Minute,
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4.1"),
			EvalModel:      getEnv("OPENAI_EVAL_MODEL", "gpt-4o-mini"),
			RequestTimeout: time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Supertone: SupertoneConfig{
			APIKey:         getEnv("SUPERTONE_API_KEY", ""),
			BaseURL:        getEnv("SUPERTONE_BASE_URL", "https://supertoneapi.com"),
			VoiceName:      getEnv("SUPERTONE_VOICE_NAME", "Aiden"),
			RequestTimeout: time.Duration(getEnvInt("SUPERTONE_TIMEOUT_SECONDS", 30)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY cannot be empty")
	}
	if c.Redis.KeyPrefix == "" {
		return fmt.Errorf("SESSION_KEY_PREFIX cannot be empty")
	}
	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
