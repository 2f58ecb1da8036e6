package classify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

type hazardKeywords struct {
	hazard   string
	keywords []string
}

// Checked in order; the first category with any keyword present wins.
var fallbackCategories = []hazardKeywords{
	{model.HazardFlood, []string{"flood", "flooding", "water", "rain", "inundated", "waterlogged", "baarish", "paani"}},
	{model.HazardStormSurge, []string{"surge", "storm", "cyclone", "hurricane", "toofan"}},
	{model.HazardHighWaves, []string{"waves", "tsunami", "tidal", "sea", "ocean", "samundar"}},
	{model.HazardCoastalErosion, []string{"erosion", "coast", "beach", "shore"}},
}

var (
	fallbackStrong   = []string{"emergency", "evacuate", "rescue", "life threatening", "trapped"}
	fallbackModerate = []string{"urgent", "help", "danger", "severe", "heavy"}
	fallbackTrend    = []string{"rising", "increasing", "getting worse", "warning"}
	hindiMarkers     = []string{"paani", "baarish", "toofan", "samundar"}
)

const (
	fallbackSeasonal = "Yes - Coastal hazards in India show strong seasonal clustering during monsoon months (Jun-Oct)"
	fallbackAction   = "Monitor situation closely and prepare for potential evacuation if conditions worsen"
)

// Fallback is the local keyword classifier used when the remote call fails.
// It is deterministic: the same text and location always give the same judgment.
// Urgency is returned as detected; callers apply NormalizeUrgency.
func Fallback(text, location string) model.HazardJudgment {
	lower := strings.ToLower(text)

	j := model.HazardJudgment{
		DetectedLanguage:  "en",
		HazardType:        model.HazardOther,
		Urgency:           model.UrgencyLow,
		Confidence:        0.5,
		HistoricalContext: fmt.Sprintf("Similar events have occurred in %s region during monsoon seasons", location),
		SeasonalPattern:   fallbackSeasonal,
		RecommendedAction: fallbackAction,
	}

	for _, cat := range fallbackCategories {
		if !containsAny(lower, cat.keywords) {
			continue
		}
		j.HazardType = cat.hazard
		j.HazardDetected = true

		switch {
		case containsAny(lower, fallbackStrong):
			j.Urgency, j.Confidence = model.UrgencyHigh, 0.75
		case containsAny(lower, fallbackModerate):
			j.Urgency, j.Confidence = model.UrgencyMedium, 0.65
		case containsAny(lower, fallbackTrend):
			j.Urgency, j.Confidence = model.UrgencyMedium, 0.6
		default:
			j.Urgency, j.Confidence = model.UrgencyLow, 0.55
		}
		break
	}

	if containsAny(lower, hindiMarkers) {
		j.DetectedLanguage = "hi"
	}

	j.Summary = fmt.Sprintf("%s indicators detected in %s with %s urgency level",
		j.HazardType, location, strings.ToLower(string(j.Urgency)))
	return j
}
