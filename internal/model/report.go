package model

import (
	"fmt"
	"strings"
	"time"
)

// Report is a citizen hazard report as submitted through the web or CLI surface.
// The correlation fields are owned by the report processor and overwritten on every run.
type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	HazardType  string    `json:"hazard_type"`
	Severity    string    `json:"severity"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	Address     string    `json:"address,omitempty"`
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	CorrelationConfidence   *float64            `json:"correlation_confidence,omitempty"`
	SocialMediaCorrelations []CorrelationResult `json:"social_media_correlations,omitempty"`
	GeneratedKeywords       *KeywordBundle      `json:"generated_keywords,omitempty"`
	StatusHistory           []StatusNote        `json:"status_history,omitempty"`
	ProcessingError         string              `json:"processing_error,omitempty"`
}

// StatusNote is one entry in a report's status history.
type StatusNote struct {
	At   time.Time `json:"at"`
	Note string    `json:"note"`
}

// HasCoordinates reports whether both latitude and longitude are present.
func (r Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Confidence returns the correlation confidence, treating "not yet scored" as 0.
func (r Report) Confidence() float64 {
	if r.CorrelationConfidence == nil {
		return 0
	}
	return *r.CorrelationConfidence
}

// LocationLabel is the "city, state" label handed to the classifier prompt.
// Missing parts fall back to "Unknown" and "India".
func (r Report) LocationLabel() string {
	city := r.City
	if city == "" {
		city = "Unknown"
	}
	state := r.State
	if state == "" {
		state = "India"
	}
	return city + ", " + state
}

// Validate checks the fields a submission must carry.
func (r Report) Validate() error {
	if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("report needs a title or description")
	}
	if strings.TrimSpace(r.HazardType) == "" {
		return fmt.Errorf("report needs a hazard_type")
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be given together")
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return fmt.Errorf("latitude out of range: %f", *r.Latitude)
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return fmt.Errorf("longitude out of range: %f", *r.Longitude)
	}
	return nil
}

// KeywordBundle is the generated search vocabulary for one report.
type KeywordBundle struct {
	PrimaryKeywords    []string `json:"primary_keywords"`
	LocationKeywords   []string `json:"location_keywords"`
	HashtagSuggestions []string `json:"hashtag_suggestions"`
	CombinedQueries    []string `json:"combined_queries"`
	LanguageVariations []string `json:"language_variations"`
	Source             string   `json:"source,omitempty"` // "llm" or "fallback"
}

// ScoredReport is the output of one correlation run.
type ScoredReport struct {
	ReportID          string              `json:"report_id"`
	Keywords          KeywordBundle       `json:"keywords"`
	Correlations      []CorrelationResult `json:"correlations"`
	OverallConfidence float64             `json:"overall_confidence"`
	PostsExamined     int                 `json:"posts_examined"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
