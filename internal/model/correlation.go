package model

import (
	"strings"
	"time"
)

// Urgency is the coarse urgency tag assigned to a post or correlation.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// ParseUrgency maps a free-form urgency string onto the three levels.
// Anything unrecognised is Low.
func ParseUrgency(s string) Urgency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return UrgencyHigh
	case "medium":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// Valid reports whether u is one of the three levels.
func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// Hazard types produced by the correlation classifier.
const (
	HazardFlood          = "Flood"
	HazardTsunami        = "Tsunami"
	HazardStormSurge     = "Storm Surge"
	HazardHighWaves      = "High Waves"
	HazardCoastalErosion = "Coastal Erosion"
	HazardOther          = "Other"
)

// CorrelationHazardTypes is the closed set the classifier may return.
var CorrelationHazardTypes = []string{
	HazardFlood, HazardTsunami, HazardStormSurge, HazardHighWaves, HazardCoastalErosion, HazardOther,
}

// HazardJudgment is the structured classifier output for one post.
type HazardJudgment struct {
	DetectedLanguage  string  `json:"original_language"`
	HazardDetected    bool    `json:"hazard_detected"`
	HazardType        string  `json:"hazard_type"`
	Urgency           Urgency `json:"urgency"`
	Confidence        float64 `json:"confidence"`
	HistoricalContext string  `json:"historical_context"`
	SeasonalPattern   string  `json:"seasonal_pattern"`
	RecommendedAction string  `json:"recommended_action"`
	Summary           string  `json:"final_summary"`
}

// Severity classes derived from (urgency, confidence).
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityMinimal  = "minimal"
)

// CorrelationResult scores one social post against one report.
type CorrelationResult struct {
	HazardJudgment

	CorrelationScore float64  `json:"correlation_score"`
	SeverityClass    string   `json:"severity_class"`
	PriorityScore    int      `json:"priority_score"`
	MatchingElements []string `json:"matching_elements"`

	PostID          string    `json:"post_id"`
	PostText        string    `json:"post_text"`
	PostTextPreview string    `json:"post_text_preview"`
	PostAuthor      string    `json:"post_author"`
	PostSource      string    `json:"post_source"`
	PostLocation    string    `json:"post_location"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	AnalysisSource  string    `json:"analysis_source"` // "llm" or "fallback"
}

// HasMatch reports whether any matching element contains substr.
func (c CorrelationResult) HasMatch(substr string) bool {
	for _, m := range c.MatchingElements {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// Preview truncates text to 100 characters, appending "..." when it was cut.
func Preview(text string) string {
	r := []rune(text)
	if len(r) > 100 {
		return string(r[:100]) + "..."
	}
	return text
}
