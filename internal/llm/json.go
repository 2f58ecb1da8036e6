package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes a surrounding ``` or ```json fence from a reply.
// The first and last lines are dropped only when both fence markers are present.
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") || !strings.HasSuffix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return strings.TrimSpace(strings.Trim(content, "`"))
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// DecodeJSON parses a model reply into v, tolerating code fences and prose
// around a single JSON object.
func DecodeJSON(content string, v any) error {
	body := StripCodeFence(content)
	if body == "" {
		return ErrEmptyResponse
	}
	err := json.Unmarshal([]byte(body), v)
	if err == nil {
		return nil
	}

	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start >= 0 && end > start {
		if err2 := json.Unmarshal([]byte(body[start:end+1]), v); err2 == nil {
			return nil
		}
	}
	return fmt.Errorf("decode model reply: %w", err)
}
