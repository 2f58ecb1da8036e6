package model

import "time"

// HotspotStatusPending is the status every freshly detected hotspot starts in.
const HotspotStatusPending = "pending_validation"

// UnknownLocation is the grouping key for posts without an inferred location.
const UnknownLocation = "Unknown Location"

// Hotspot is a burst of same-hazard posts about one location.
type Hotspot struct {
	ID                string           `json:"id"`
	Location          string           `json:"location"`
	LocationDetails   *LocationDetails `json:"location_details,omitempty"`
	HazardType        string           `json:"hazard_type"`
	PostCount         int              `json:"post_count"`
	UrgencyBreakdown  map[Urgency]int  `json:"urgency_breakdown"`
	OverallUrgency    Urgency          `json:"overall_urgency"`
	AverageConfidence float64          `json:"average_confidence"`
	TimeRange         *TimeRange       `json:"time_range,omitempty"`
	DetectionTime     time.Time        `json:"detection_time"`
	Status            string           `json:"status"`
	ContributingPosts []PostSample     `json:"contributing_posts"`
	Verification      *Verification    `json:"verification,omitempty"`
}

// LocationDetails aggregates the inferred locations of a hotspot's posts.
type LocationDetails struct {
	City                    string    `json:"city,omitempty"`
	State                   string    `json:"state,omitempty"`
	Country                 string    `json:"country"`
	Centroid                *GeoPoint `json:"centroid,omitempty"`
	CoordinateCount         int       `json:"coordinate_count"`
	TotalLocationReferences int       `json:"total_location_references"`
}

// TimeRange spans the earliest and latest contributing posts.
type TimeRange struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes float64   `json:"duration_minutes"`
}

// PostSample is the short form of a contributing post kept on a hotspot.
type PostSample struct {
	ID          string    `json:"id"`
	TextPreview string    `json:"text_preview"`
	Confidence  float64   `json:"confidence"`
	Urgency     Urgency   `json:"urgency"`
	CreatedAt   time.Time `json:"created_at"`
}

// HotspotSummary rolls up a batch of hotspots.
type HotspotSummary struct {
	TotalHotspots          int             `json:"total_hotspots"`
	UrgencyBreakdown       map[Urgency]int `json:"urgency_breakdown"`
	HazardTypeBreakdown    map[string]int  `json:"hazard_type_breakdown"`
	TotalPostsInHotspots   int             `json:"total_posts_in_hotspots"`
	AveragePostsPerHotspot float64         `json:"average_posts_per_hotspot"`
}
