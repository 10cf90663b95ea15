// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendDir     string
	CORSOrigins     []string
	LogLevel        slog.Level
	LLM             LLMConfig
	SessionBackend  string
	DBPath          string
	SessionIdleTTL  time.Duration // 0 disables the idle sweeper
	MaxUploadBytes  int64
	ConversationLog ConversationLogConfig
}

// LLMConfig selects and authenticates the completion provider.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// ConversationLogConfig controls NDJSON conversation logging.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "groq")))

	cfg := &Config{
		Port:        getEnv("PORT", "8000"),
		FrontendDir: getEnv("FRONTEND_DIR", "../frontend/dist"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:    getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		LLM: LLMConfig{
			Provider: provider,
			APIKey:   apiKeyFor(provider),
			Model:    getEnv("LLM_MODEL", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
			Timeout:  getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		SessionBackend: strings.ToLower(getEnv("SESSION_BACKEND", BackendMemory)),
		DBPath:         getEnv("DB_PATH", ":memory:"),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 0),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),
		ConversationLog: ConversationLogConfig{
			Enabled:   getEnvBool("CONVERSATION_LOG_ENABLED", false),
			Dir:       getEnv("CONVERSATION_LOG_DIR", "./data/logs/conversations"),
			QueueSize: getEnvInt("CONVERSATION_LOG_QUEUE_SIZE", 1000),
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
	switch c.LLM.Provider {
	case "groq", "openai", "gemini":
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of groq, openai, gemini; got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	switch c.SessionBackend {
	case BackendMemory:
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH cannot be empty when SESSION_BACKEND=sqlite")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be memory or sqlite; got %q", c.SessionBackend)
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL cannot be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.ConversationLog.Enabled && c.ConversationLog.Dir == "" {
		return fmt.Errorf("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return fmt.Errorf("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// LLMConfigured reports whether a provider API key is present.
func (c *Config) LLMConfigured() bool {
	return c.LLM.APIKey != ""
}

// apiKeyFor prefers the provider-specific variable and falls back to LLM_API_KEY.
func apiKeyFor(provider string) string {
	var key string
	switch provider {
	case "groq":
		key = getEnv("GROQ_API_KEY", "")
	case "openai":
		key = getEnv("OPENAI_API_KEY", "")
	case "gemini":
		key = getEnv("GEMINI_API_KEY", "")
	}
	if key == "" {
		key = getEnv("LLM_API_KEY", "")
	}
	return strings.TrimSpace(key)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return fallback
	}
	return level
}
