package interview

import (
	"context"
	"strconv"
	"strings"

	"github.com/ashureev/mockinterview/internal/llm"
)

// Score is the parsed result of a single-answer evaluation. Either field may
// be nil when the model omitted or garbled it.
type Score struct {
	Value    *int
	Feedback *string
}

// ScoreLastAnswer asks the model to grade answer as a reply to question.
// Only gateway failures are returned as errors; format problems yield nil fields.
func ScoreLastAnswer(ctx context.Context, gen llm.Generator, question, answer string) (Score, error) {
	raw, err := gen.Generate(ctx, evaluatePrompt,
		[]llm.Message{{Role: llm.RoleUser, Content: evaluationInput(question, answer)}},
		evaluateParams,
	)
	if err != nil {
		return Score{}, err
	}
	return ParseScore(raw), nil
}

// ParseScore reads "SCORE: n" and "FEEDBACK: text" lines, case-insensitively.
func ParseScore(text string) Score {
	var s Score
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := cutPrefixFold(line, "SCORE:"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
				s.Value = &n
			}
		}
		if rest, ok := cutPrefixFold(line, "FEEDBACK:"); ok {
			fb := strings.TrimSpace(rest)
			s.Feedback = &fb
		}
	}
	return s
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
