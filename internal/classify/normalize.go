package classify

import (
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

var (
	downCues = []string{"rumor", "hoax", "false alarm", "fake", "test drill", "drill"}

	strongCues = []string{
		"emergency", "evacuate", "evacuation", "rescue", "immediately", "life threatening",
		"impassable", "trapped", "collapsed", "collapse", "mayday",
	}

	moderateCues = []string{"rising", "increasing", "severe", "heavy", "warning", "alert", "overflow", "breach", "breached"}
)

// NormalizeUrgency re-derives urgency from lexical evidence in text so a
// confident but unsubstantiated High cannot drive alerting. The rules are an
// ordered decision list:
//
//  1. de-escalation cue (rumor, hoax, fake, drill...) -> Low
//  2. strong emergency cue and confidence >= 0.7 -> High
//  3. moderate cue and confidence >= 0.55 -> Medium
//  4. High with confidence < 0.7 -> Medium
//  5. Medium with confidence < 0.5 -> Low
//  6. the input urgency, Low when empty
func NormalizeUrgency(urgency model.Urgency, confidence float64, text string) model.Urgency {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, downCues):
		return model.UrgencyLow
	case containsAny(lower, strongCues) && confidence >= 0.7:
		return model.UrgencyHigh
	case containsAny(lower, moderateCues) && confidence >= 0.55:
		return model.UrgencyMedium
	case urgency == model.UrgencyHigh && confidence < 0.7:
		return model.UrgencyMedium
	case urgency == model.UrgencyMedium && confidence < 0.5:
		return model.UrgencyLow
	case urgency == "":
		return model.UrgencyLow
	default:
		return urgency
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
