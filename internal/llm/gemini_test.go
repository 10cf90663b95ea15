package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type capturedGeminiRequest struct {
	Path              string
	APIKey            string
	Contents          []geminiContent `json:"contents"`
	SystemInstruction geminiContent   `json:"systemInstruction"`
	GenerationConfig  struct {
		Temperature     float32 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

func newGeminiServer(t *testing.T, status int, body string, captured *capturedGeminiRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
			captured.Path = r.URL.Path
			captured.APIKey = r.Header.Get("x-goog-api-key")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, baseURL string) *GeminiGenerator {
	t.Helper()
	gen, err := NewGeminiGenerator(context.Background(), GeminiConfig{
		APIKey:  "gemini-key",
		BaseURL: baseURL + "/",
		Model:   DefaultGeminiModel,
		Timeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return gen
}

func TestGeminiGeneratorSendsSystemMessagesAndParams(t *testing.T) {
	t.Parallel()

	var got capturedGeminiRequest
	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"First part"},{"text":"second part"}]}}]}`,
		&got)
	gen := newTestGemini(t, srv.URL)

	text, err := gen.Generate(context.Background(), "You are an interviewer.", []Message{
		{Role: RoleUser, Content: "Hi"},
		{Role: RoleAssistant, Content: "Tell me about Go."},
		{Role: RoleUser, Content: "I like channels."},
	}, Params{Temperature: 0.3, MaxTokens: 150})
	require.NoError(t, err)

	assert.Equal(t, "First part\nsecond part", text)
	assert.Equal(t, "/v1beta/models/"+DefaultGeminiModel+":generateContent", got.Path)
	assert.Equal(t, "gemini-key", got.APIKey)

	require.Len(t, got.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are an interviewer.", got.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.3, got.GenerationConfig.Temperature, 1e-6)
	assert.Equal(t, 150, got.GenerationConfig.MaxOutputTokens)

	require.Len(t, got.Contents, 3)
	assert.Equal(t, genai.RoleUser, got.Contents[0].Role)
	assert.Equal(t, genai.RoleModel, got.Contents[1].Role)
	assert.Equal(t, "Tell me about Go.", got.Contents[1].Parts[0].Text)
	assert.Equal(t, genai.RoleUser, got.Contents[2].Role)
}

func TestGeminiGeneratorEmptyResponse(t *testing.T) {
	t.Parallel()

	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"   "}]}}]}`, nil)
	gen := newTestGemini(t, srv.URL)

	_, err := gen.Generate(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hi"}}, Params{})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, ProviderGemini, ue.Provider)
	assert.ErrorIs(t, err, errEmptyResponse)
}

func TestGeminiGeneratorWrapsProviderError(t *testing.T) {
	t.Parallel()

	srv := newGeminiServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, nil)
	gen := newTestGemini(t, srv.URL)

	_, err := gen.Generate(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hi"}}, Params{})

	require.True(t, IsUpstream(err))
	var apiErr genai.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	assert.Contains(t, err.Error(), "LLM call failed")
}

func TestNewGeminiThroughFactory(t *testing.T) {
	t.Parallel()

	srv := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`, nil)

	gen, err := New(context.Background(), Config{
		Provider: ProviderGemini,
		APIKey:   "gemini-key",
		BaseURL:  srv.URL + "/",
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)
	require.IsType(t, &GeminiGenerator{}, gen)

	text, err := gen.Generate(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hi"}}, Params{})
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}
