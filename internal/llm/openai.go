package llm

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIGenerator calls an OpenAI-compatible chat completions API.
type OpenAIGenerator struct {
	client   *openai.Client
	provider string
	model    string
	logger   *slog.Logger
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// NewOpenAIGenerator builds a generator backed by go-openai.
func NewOpenAIGenerator(cfg OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIGenerator{
		client:   openai.NewClientWithConfig(clientCfg),
		provider: cfg.Provider,
		model:    cfg.Model,
		logger:   logger,
	}
}

// Generate sends one chat completion request and returns the first choice.
func (g *OpenAIGenerator) Generate(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	g.logger.Debug("llm request",
		"provider", g.provider,
		"model", g.model,
		"messages", len(msgs),
		"system_preview", TruncateForLog(system, 120),
	)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    msgs,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
	})
	if err != nil {
		return "", upstream(g.provider, err)
	}
	if len(resp.Choices) == 0 {
		return "", upstream(g.provider, errEmptyResponse)
	}

	text := resp.Choices[0].Message.Content
	g.logger.Debug("llm response",
		"provider", g.provider,
		"model", g.model,
		"response_length", len(text),
		"response_preview", TruncateForLog(text, 200),
	)
	return text, nil
}
