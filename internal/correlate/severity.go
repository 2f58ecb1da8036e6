package correlate

import (
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/score"
)

// Severity maps (urgency, confidence) to a severity class and priority 1..5.
func Severity(urgency model.Urgency, confidence float64) (string, int) {
	switch {
	case urgency == model.UrgencyHigh && confidence > 0.7:
		return model.SeverityCritical, 5
	case urgency == model.UrgencyHigh || (urgency == model.UrgencyMedium && confidence > 0.8):
		return model.SeverityHigh, 4
	case urgency == model.UrgencyMedium && confidence > 0.6:
		return model.SeverityMedium, 3
	case confidence > 0.5:
		return model.SeverityLow, 2
	default:
		return model.SeverityMinimal, 1
	}
}

// MatchingElements tags what a post shares with the report: literal city,
// state and hazard mentions, agreement of the classified hazard, urgency,
// recency cues, non-English language, and a seasonal pattern.
func MatchingElements(report model.Report, postText string, j model.HazardJudgment) []string {
	text := strings.ToLower(postText)
	elements := []string{}

	if city := strings.ToLower(report.City); city != "" && strings.Contains(text, city) {
		elements = append(elements, "location_city:"+city)
	}
	if state := strings.ToLower(report.State); state != "" && strings.Contains(text, state) {
		elements = append(elements, "location_state:"+state)
	}

	hazard := strings.ToLower(report.HazardType)
	if hazard != "" && strings.Contains(text, hazard) {
		elements = append(elements, "hazard_direct:"+hazard)
	}
	if detected := strings.ToLower(j.HazardType); detected != "" && detected == hazard {
		elements = append(elements, "hazard_ai:"+detected)
	}

	if j.Urgency == model.UrgencyHigh || j.Urgency == model.UrgencyMedium {
		elements = append(elements, "urgency:"+strings.ToLower(string(j.Urgency)))
	}
	if score.IsRecent(text) {
		elements = append(elements, "temporal:recent")
	}
	if j.DetectedLanguage != "en" {
		elements = append(elements, "language:"+j.DetectedLanguage)
	}
	if strings.HasPrefix(j.SeasonalPattern, "Yes") {
		elements = append(elements, "pattern:seasonal")
	}
	return elements
}
