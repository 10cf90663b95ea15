package interview

import (
	"testing"

	"github.com/ashureev/mockinterview/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeQuestion(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Explain binary search", true},
		{"  what is a mutex", true},
		{"Is that ok?", true},
		{"Compare TCP and UDP", true},
		{"I worked on payments", false},
		{"", false},
		{"Showcase: my portfolio", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeQuestion(tt.in), "input %q", tt.in)
	}
}

func TestFallbackDecision(t *testing.T) {
	assert.Equal(t, domain.Decision{Action: domain.ActionAnswerUser}, FallbackDecision("How does GC work"))
	assert.Equal(t, domain.Decision{Action: domain.ActionAskFollowup}, FallbackDecision("I like Go"))
	assert.Equal(t, domain.Decision{Action: domain.ActionAskFollowup}, FallbackDecision(""))
}

func TestParseScore(t *testing.T) {
	s := ParseScore("SCORE: 8\nFEEDBACK: Good depth.")
	require.NotNil(t, s.Value)
	require.NotNil(t, s.Feedback)
	assert.Equal(t, 8, *s.Value)
	assert.Equal(t, "Good depth.", *s.Feedback)

	s = ParseScore("score: 5\nfeedback:   Needs examples.  ")
	require.NotNil(t, s.Value)
	assert.Equal(t, 5, *s.Value)
	assert.Equal(t, "Needs examples.", *s.Feedback)

	s = ParseScore("SCORE: eight\nFEEDBACK: ok")
	assert.Nil(t, s.Value)
	require.NotNil(t, s.Feedback)
	assert.Equal(t, "ok", *s.Feedback)

	s = ParseScore("Nice answer overall.")
	assert.Nil(t, s.Value)
	assert.Nil(t, s.Feedback)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Why Go?", firstLine("  Why Go?\nExtra text"))
	assert.Equal(t, "Single", firstLine("Single"))
}

func TestEvaluationInputWithoutQuestion(t *testing.T) {
	assert.Equal(t, "Question: N/A\nAnswer: hi", evaluationInput("", "hi"))
}
