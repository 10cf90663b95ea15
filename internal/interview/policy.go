package interview

import (
	"strings"

	"github.com/ashureev/mockinterview/internal/domain"
)

var questionLeadWords = []string{
	"explain", "how", "what", "why", "define", "difference",
	"show", "write", "implement", "give", "compare",
}

// LooksLikeQuestion reports whether the candidate appears to be asking the
// interviewer something directly. It is a hint for the model, not a branch.
func LooksLikeQuestion(utterance string) bool {
	if utterance == "" {
		return false
	}
	if strings.Contains(utterance, "?") {
		return true
	}
	lower := strings.ToLower(strings.TrimSpace(utterance))
	for _, w := range questionLeadWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}

// FallbackDecision is used when the model output carries no usable decision:
// a direct question gets answered, anything else gets a follow-up. Content is
// left empty so the handler generates it.
func FallbackDecision(utterance string) domain.Decision {
	if utterance != "" && LooksLikeQuestion(utterance) {
		return domain.Decision{Action: domain.ActionAnswerUser}
	}
	return domain.Decision{Action: domain.ActionAskFollowup}
}
