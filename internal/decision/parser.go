// Package decision turns free-form model output into a structured interview decision.
package decision

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ashureev/mockinterview/internal/domain"
)

// Parse extracts a decision from raw model output. It first tries the whole
// text as a JSON object, then the span from the first '{' to the last '}'.
// It reports false when neither yields an object with a known action.
func Parse(raw string) (domain.Decision, bool) {
	fields, ok := decodeObject(raw)
	if !ok {
		fields, ok = decodeObject(outermostObject(raw))
	}
	if !ok {
		return domain.Decision{}, false
	}

	action := domain.Action(strings.TrimSpace(coerceString(fields["action"])))
	if !action.Known() {
		return domain.Decision{}, false
	}

	return domain.Decision{
		Action:      action,
		Content:     strings.TrimSpace(coerceString(fields["content"])),
		ShouldScore: coerceBool(fields["should_score"]),
		Score:       coerceInt(fields["score"]),
		Feedback:    strings.TrimSpace(coerceString(fields["feedback"])),
	}, true
}

func decodeObject(s string) (map[string]any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(s), &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// outermostObject returns the greedy {...} span of s, or "" when there is none.
func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceInt(v any) *int {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(math.Round(f))
	return &n
}
