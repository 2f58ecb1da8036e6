package model

import "time"

// SocialPost is a post pulled from a social feed or search API.
type SocialPost struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	CleanedText string    `json:"cleaned_text,omitempty"`
	Author      string    `json:"author,omitempty"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	Geo              *GeoPoint         `json:"geo,omitempty"`
	InferredLocation *InferredLocation `json:"inferred_location,omitempty"`
	Analysis         *PostAnalysis     `json:"ai_analysis,omitempty"`

	IsHazard                 bool `json:"is_hazard"`
	MeetsConfidenceThreshold bool `json:"meets_confidence_threshold"`
}

// Body returns the cleaned text when present, otherwise the raw text.
func (p SocialPost) Body() string {
	if p.CleanedText != "" {
		return p.CleanedText
	}
	return p.Text
}

// GeoPoint is a latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// InferredLocation is the best-effort place a post talks about.
type InferredLocation struct {
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Address    string   `json:"address,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Confidence float64  `json:"confidence"`
}

// HasCoordinates reports whether both coordinates were inferred.
func (l InferredLocation) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Relevance values for post analysis.
const (
	RelevanceHazard    = "hazard"
	RelevanceNonHazard = "non-hazard"
)

// Post hazard types used by feed-level relevance analysis.
const (
	PostHazardHighWave = "High Wave"
	PostHazardCyclone  = "Cyclone"
)

// PostHazardTypes is the closed set for feed-level relevance analysis.
var PostHazardTypes = []string{
	HazardFlood, HazardTsunami, PostHazardHighWave, HazardStormSurge, PostHazardCyclone, HazardOther,
}

// PostAnalysis is the relevance classification attached to a feed post.
type PostAnalysis struct {
	Relevance  string  `json:"relevance"`
	HazardType string  `json:"hazard_type,omitempty"`
	Urgency    Urgency `json:"urgency"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}
