package keywords

import (
	"encoding/json"
	"strings"
)

// stringList accepts a JSON array of strings, a single string, or null.
// Non-string array entries and blanks are dropped.
type stringList []string

func (l *stringList) UnmarshalJSON(b []byte) error {
	var items []any
	if err := json.Unmarshal(b, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, it := range items {
			if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		*l = out
		return nil
	}
	var single string
	if err := json.Unmarshal(b, &single); err == nil && strings.TrimSpace(single) != "" {
		*l = []string{strings.TrimSpace(single)}
		return nil
	}
	*l = []string{}
	return nil
}
