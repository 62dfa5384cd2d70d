package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// extractJSON pulls the structured payload out of a raw completion. Order:
// fenced json block, then the outermost brace span. A top-level "output" key
// is unwrapped.
func extractJSON(raw string) (any, bool) {
	var jsonStr string
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		jsonStr = m[1]
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, false
		}
		jsonStr = raw[start : end+1]
	}

	var v any
	if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		if inner, found := m["output"]; found {
			return inner, true
		}
	}
	return v, true
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripText cleans a plain-text completion: reasoning-model think blocks go,
// surrounding whitespace and quote fences go.
func stripText(raw string) string {
	s := thinkBlock.ReplaceAllString(raw, "")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"`")
	return strings.TrimSpace(s)
}
