// Package llm is the boundary to the external text-completion provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role tags a message sent after the system instruction.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    Role
	Content string
}

// Params tunes a single completion call.
type Params struct {
	Temperature float32
	MaxTokens   int
}

// Generator produces text for a system instruction and a short message list.
type Generator interface {
	Generate(ctx context.Context, system string, messages []Message, params Params) (string, error)
}

// ErrNotConfigured is returned by generators built without an API key.
var ErrNotConfigured = errors.New("API key not configured")

var errEmptyResponse = errors.New("provider returned empty response")

// UpstreamError reports a transport, authentication or provider failure.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("LLM call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err carries an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func upstream(provider string, err error) error {
	return &UpstreamError{Provider: provider, Err: err}
}

// unconfigured fails every call so a missing credential surfaces at first use
// rather than at startup.
type unconfigured struct {
	provider string
}

func (u unconfigured) Generate(context.Context, string, []Message, Params) (string, error) {
	return "", upstream(u.provider, ErrNotConfigured)
}

// TruncateForLog shortens s to limit runes, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
