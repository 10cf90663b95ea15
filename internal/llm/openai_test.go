package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newCompletionServer(t *testing.T, status int, body string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGeneratorSendsSystemAndMessages(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	srv := newCompletionServer(t, http.StatusOK,
		`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Hello there"}}]}`,
		&got)

	gen := NewOpenAIGenerator(OpenAIConfig{
		Provider: ProviderGroq,
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Model:    DefaultGroqModel,
		Timeout:  5 * time.Second,
	}, slog.Default())

	text, err := gen.Generate(context.Background(), "be brief", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "What brings you here?"},
		{Role: RoleUser, Content: "Practice."},
	}, Params{Temperature: 0.2, MaxTokens: 50})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", text)

	assert.Equal(t, DefaultGroqModel, got.Model)
	assert.Equal(t, 50, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 0.001)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "hi", got.Messages[1].Content)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "What brings you here?", got.Messages[2].Content)
	assert.Equal(t, "user", got.Messages[3].Role)
}

func TestOpenAIGeneratorWrapsProviderErrors(t *testing.T) {
	t.Parallel()

	srv := newCompletionServer(t, http.StatusUnauthorized,
		`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`, nil)

	gen := NewOpenAIGenerator(OpenAIConfig{Provider: ProviderGroq, APIKey: "bad", BaseURL: srv.URL, Model: "m", Timeout: 5 * time.Second}, nil)

	_, err := gen.Generate(context.Background(), "sys", nil, Params{})
	require.Error(t, err)
	assert.True(t, IsUpstream(err))

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, ProviderGroq, ue.Provider)
	assert.Contains(t, err.Error(), "LLM call failed")
}

func TestOpenAIGeneratorEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := newCompletionServer(t, http.StatusOK, `{"id":"1","choices":[]}`, nil)
	gen := NewOpenAIGenerator(OpenAIConfig{Provider: ProviderOpenAI, APIKey: "k", BaseURL: srv.URL, Model: "m", Timeout: 5 * time.Second}, nil)

	_, err := gen.Generate(context.Background(), "sys", nil, Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestNewWithoutKeyFailsAtFirstUse(t *testing.T) {
	t.Parallel()

	gen, err := New(context.Background(), Config{Provider: "GROQ"}, nil)
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "sys", nil, Params{})
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Provider: "carrier-pigeon", APIKey: "k"}, nil)
	require.Error(t, err)
}

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", TruncateForLog("  abc ", 5))
	assert.Equal(t, "ab...", TruncateForLog("abcdef", 2))
	assert.Equal(t, "", TruncateForLog("abc", 0))
}
