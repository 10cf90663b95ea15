package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Default models per provider.
const (
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New returns the Generator for cfg.Provider. An empty API key yields a
// generator whose calls fail with ErrNotConfigured.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ProviderGroq
	}

	switch provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	if strings.TrimSpace(cfg.APIKey) == "" {
		return unconfigured{provider: provider}, nil
	}

	model := strings.TrimSpace(cfg.Model)
	switch provider {
	case ProviderGroq:
		if model == "" {
			model = DefaultGroqModel
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = GroqBaseURL
		}
		return NewOpenAIGenerator(OpenAIConfig{
			Provider: provider,
			APIKey:   cfg.APIKey,
			BaseURL:  baseURL,
			Model:    model,
			Timeout:  cfg.Timeout,
		}, logger), nil
	case ProviderOpenAI:
		if model == "" {
			model = DefaultOpenAIModel
		}
		return NewOpenAIGenerator(OpenAIConfig{
			Provider: provider,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    model,
			Timeout:  cfg.Timeout,
		}, logger), nil
	default:
		if model == "" {
			model = DefaultGeminiModel
		}
		gen, err := NewGeminiGenerator(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   model,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
}
