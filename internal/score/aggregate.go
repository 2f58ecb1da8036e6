// Package score folds a report's per-post correlations into one overall
// confidence value.
package score

import (
	"math"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

// Ceiling is the highest confidence a report can ever reach.
const Ceiling = 0.95

// recentCues are substrings that mark a post as describing the present.
var recentCues = []string{"now", "currently", "right now", "happening", "just", "minutes ago", "hours ago"}

// IsRecent reports whether text carries a recent-time cue.
func IsRecent(text string) bool {
	lower := strings.ToLower(text)
	for _, c := range recentCues {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// Adjustment is one enhancement step applied to the base score.
type Adjustment struct {
	Name    string  `json:"name"`
	Count   int     `json:"count"`
	Boost   float64 `json:"boost"`
	Cap     float64 `json:"cap"`
	Applied bool    `json:"applied"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
}

// Breakdown explains how a confidence value was reached.
type Breakdown struct {
	Base        float64      `json:"base"`
	Adjustments []Adjustment `json:"adjustments"`
	Final       float64      `json:"final"`
}

// Aggregate returns the overall confidence for correlations, in [0, 0.95]
// and rounded to 3 decimals.
func Aggregate(correlations []model.CorrelationResult) float64 {
	return AggregateWithBreakdown(correlations).Final
}

// AggregateWithBreakdown is Aggregate plus the trail of applied steps.
func AggregateWithBreakdown(correlations []model.CorrelationResult) Breakdown {
	var b Breakdown
	if len(correlations) == 0 {
		return b
	}

	var (
		totalWeight, weighted float64
		strong                int
		urgencyBoost          float64
		urgent                int
		locations, hazards    int
		recent                int
	)
	for _, c := range correlations {
		score := c.CorrelationScore
		weight := score * c.Confidence
		// score is counted twice: results that are both well matched and
		// confidently classified dominate.
		weighted += weight * score
		totalWeight += weight

		if score > 0.7 {
			strong++
		}
		switch c.Urgency {
		case model.UrgencyHigh:
			urgencyBoost += 0.05
			urgent++
		case model.UrgencyMedium:
			urgencyBoost += 0.02
			urgent++
		}
		if c.HasMatch("location") {
			locations++
		}
		if c.HasMatch("hazard") {
			hazards++
		}
		if IsRecent(c.PostText) {
			recent++
		}
	}
	if totalWeight == 0 {
		return b
	}

	b.Base = weighted / totalWeight
	v := b.Base

	step := func(name string, count int, applied bool, boost, ceiling float64) {
		a := Adjustment{Name: name, Count: count, Boost: boost, Cap: ceiling, Applied: applied, Before: v}
		if applied {
			v = math.Min(v+boost, ceiling)
		}
		a.After = v
		b.Adjustments = append(b.Adjustments, a)
	}

	if strong >= 3 {
		step("strong_correlations", strong, true, 0.05, 0.95)
	} else {
		step("strong_correlations", strong, strong >= 2, 0.03, 0.92)
	}
	step("location_consistency", locations, locations >= 2, 0.03, 0.90)
	step("hazard_consistency", hazards, hazards >= 2, 0.02, 0.88)
	// Always applied, so its cap binds even with no urgent results.
	step("urgency", urgent, true, urgencyBoost*0.5, 0.92)
	step("recency", recent, recent >= 2, 0.02, 0.90)

	b.Final = round3(math.Min(v, Ceiling))
	return b
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
