package search

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/coastwatch/internal/model"
)

// Providers disagree on field names; these are tried in order.
var (
	textFields = []string{"content", "text", "full_text"}
	idFields   = []string{"entryId", "id", "tweet_id"}
	timeFields = []string{"date", "created_at", "timestamp"}
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RubyDate, // Twitter v1: "Mon Jan 02 15:04:05 -0700 2006"
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTweet(raw json.RawMessage, now time.Time) (model.SocialPost, bool) {
	// Numbers stay json.Number so 64-bit snowflake ids survive intact.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tweet map[string]any
	if err := dec.Decode(&tweet); err != nil || len(tweet) == 0 {
		return model.SocialPost{}, false
	}
	nested, _ := tweet["tweet"].(map[string]any)

	text := firstString(tweet, textFields...)
	if text == "" && nested != nil {
		text = firstString(nested, "content", "text")
	}
	if text == "" {
		text = truncateRunes(string(raw), 100)
	}

	id := firstString(tweet, idFields...)
	if id == "" {
		id = "rapid_" + uuid.NewString()
	}

	created := now
	if ts := firstString(tweet, timeFields...); ts != "" {
		if t, ok := parseTime(ts); ok {
			created = t
		}
	}

	author := "unknown"
	if a, ok := tweet["author"].(map[string]any); ok {
		if name := firstString(a, "username"); name != "" {
			author = name
		}
	}

	return model.SocialPost{
		ID:        id,
		Text:      text,
		Author:    author,
		Source:    SourceRapidAPI,
		CreatedAt: created,
	}, true
}

// firstString returns the first non-empty field. Numbers are rendered
// exactly as they appear in the payload.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
