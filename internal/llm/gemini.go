package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiGenerator wraps the Google GenAI client.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// GeminiConfig configures a GeminiGenerator. BaseURL is optional.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGeminiGenerator creates a generator for the Gemini API backend.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (*GeminiGenerator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model, logger: logger}, nil
}

// Generate calls Models.GenerateContent and joins the textual parts of every candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, system string, messages []Message, params Params) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.RoleUser
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		Temperature:       genai.Ptr(params.Temperature),
		MaxOutputTokens:   int32(params.MaxTokens),
	}

	g.logger.Debug("llm request",
		"provider", ProviderGemini,
		"model", g.model,
		"messages", len(contents),
		"system_preview", TruncateForLog(system, 120),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", upstream(ProviderGemini, err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(part.Text)
		}
	}

	output := builder.String()
	if strings.TrimSpace(output) == "" {
		return "", upstream(ProviderGemini, errEmptyResponse)
	}

	g.logger.Debug("llm response",
		"provider", ProviderGemini,
		"model", g.model,
		"response_length", len(output),
		"response_preview", TruncateForLog(output, 200),
	)
	return output, nil
}
