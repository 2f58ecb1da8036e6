package search

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/coastwatch/internal/model"
)

// Simulated builds the stand-in post used when real search is unavailable.
// It is derived from the report itself and marked with SourceSimulated.
func Simulated(report model.Report, now time.Time) model.SocialPost {
	hazard := report.HazardType
	if hazard == "" {
		hazard = "issues"
	}
	city := report.City
	if city == "" {
		city = "area"
	}

	post := model.SocialPost{
		ID:        "sim_" + uuid.NewString(),
		Text:      "Experiencing " + hazard + " in " + city + ". Water levels rising rapidly! #Emergency",
		Author:    "citizen_reporter",
		Source:    SourceSimulated,
		CreatedAt: now,
	}
	if report.City != "" || report.State != "" {
		post.InferredLocation = &model.InferredLocation{City: report.City, State: report.State, Confidence: 0.8}
	}
	return post
}
