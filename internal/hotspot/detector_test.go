package hotspot

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/coastwatch/internal/model"
)

var detectedAt = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

func newTestDetector(threshold int) *Detector {
	return NewDetector(threshold, clockwork.NewFakeClockAt(detectedAt), nil)
}

func hazardPost(id, city, state, hazard string, urgency model.Urgency, conf float64) model.SocialPost {
	return model.SocialPost{
		ID:               id,
		Text:             "Heavy flooding reported near the station, water rising fast",
		CreatedAt:        detectedAt.Add(-time.Hour),
		InferredLocation: &model.InferredLocation{City: city, State: state, Confidence: 0.7},
		Analysis: &model.PostAnalysis{
			Relevance:  model.RelevanceHazard,
			HazardType: hazard,
			Urgency:    urgency,
			Confidence: conf,
		},
		IsHazard:                 true,
		MeetsConfidenceThreshold: true,
	}
}

func mumbaiFloodPosts(n, high int) []model.SocialPost {
	posts := make([]model.SocialPost, 0, n)
	for i := 0; i < n; i++ {
		u := model.UrgencyLow
		if i < high {
			u = model.UrgencyHigh
		}
		p := hazardPost(fmt.Sprintf("p%d", i), "Mumbai", "Maharashtra", model.HazardFlood, u, 0.8)
		p.CreatedAt = detectedAt.Add(-time.Duration(n-i) * time.Minute)
		posts = append(posts, p)
	}
	return posts
}

func TestDetect_MumbaiFloodHotspot(t *testing.T) {
	hotspots := newTestDetector(20).Detect(mumbaiFloodPosts(25, 20))

	require.Len(t, hotspots, 1)
	h := hotspots[0]
	assert.Equal(t, model.UrgencyHigh, h.OverallUrgency)
	assert.Equal(t, 25, h.PostCount)
	assert.Equal(t, "Mumbai, Maharashtra", h.Location)
	assert.Equal(t, model.HazardFlood, h.HazardType)
	assert.Equal(t, 20, h.UrgencyBreakdown[model.UrgencyHigh])
	assert.Equal(t, 5, h.UrgencyBreakdown[model.UrgencyLow])
	assert.Equal(t, 0, h.UrgencyBreakdown[model.UrgencyMedium])
	assert.Equal(t, model.HotspotStatusPending, h.Status)
	assert.Equal(t, fmt.Sprintf("hotspot_Mumbai_Maharashtra_Flood_%d", detectedAt.Unix()), h.ID)
	assert.Equal(t, detectedAt, h.DetectionTime)
	assert.InDelta(t, 0.8, h.AverageConfidence, 1e-9)
	assert.Len(t, h.ContributingPosts, 10)
	assert.Equal(t, "p0", h.ContributingPosts[0].ID)

	require.NotNil(t, h.TimeRange)
	assert.InDelta(t, 24.0, h.TimeRange.DurationMinutes, 1e-9)

	require.NotNil(t, h.LocationDetails)
	assert.Equal(t, "Mumbai", h.LocationDetails.City)
	assert.Equal(t, "Maharashtra", h.LocationDetails.State)
	assert.Equal(t, "India", h.LocationDetails.Country)
	assert.Equal(t, 25, h.LocationDetails.TotalLocationReferences)
	assert.Equal(t, 0, h.LocationDetails.CoordinateCount)
	assert.Nil(t, h.LocationDetails.Centroid)
}

func TestDetect_BelowThresholdDropped(t *testing.T) {
	hotspots := newTestDetector(20).Detect(mumbaiFloodPosts(19, 19))
	assert.Empty(t, hotspots)
}

func TestDetect_ThresholdIsInclusive(t *testing.T) {
	hotspots := newTestDetector(20).Detect(mumbaiFloodPosts(20, 0))
	require.Len(t, hotspots, 1)
	assert.Equal(t, model.UrgencyLow, hotspots[0].OverallUrgency)
}

func TestDetect_FiltersIneligiblePosts(t *testing.T) {
	posts := mumbaiFloodPosts(20, 0)
	posts[0].IsHazard = false
	posts[1].MeetsConfidenceThreshold = false

	assert.Empty(t, newTestDetector(20).Detect(posts))
}

func TestDetect_SplitsByHazardWithinLocation(t *testing.T) {
	var posts []model.SocialPost
	for i := 0; i < 12; i++ {
		posts = append(posts, hazardPost(fmt.Sprintf("f%d", i), "Chennai", "Tamil Nadu", model.HazardFlood, model.UrgencyMedium, 0.9))
		posts = append(posts, hazardPost(fmt.Sprintf("c%d", i), "Chennai", "Tamil Nadu", model.PostHazardCyclone, model.UrgencyLow, 0.9))
	}

	// 24 posts in the location but no single hazard reaches 20
	assert.Empty(t, newTestDetector(20).Detect(posts))

	hotspots := newTestDetector(10).Detect(posts)
	require.Len(t, hotspots, 2)
	assert.Equal(t, model.HazardFlood, hotspots[0].HazardType)
	assert.Equal(t, model.UrgencyMedium, hotspots[0].OverallUrgency)
	assert.Equal(t, model.PostHazardCyclone, hotspots[1].HazardType)
	assert.Equal(t, model.UrgencyLow, hotspots[1].OverallUrgency)
}

func TestDetect_UnknownLocationAndMissingParts(t *testing.T) {
	var posts []model.SocialPost
	for i := 0; i < 3; i++ {
		p := hazardPost(fmt.Sprintf("u%d", i), "", "", model.HazardFlood, model.UrgencyLow, 0.8)
		p.InferredLocation = nil
		posts = append(posts, p)
	}
	for i := 0; i < 3; i++ {
		posts = append(posts, hazardPost(fmt.Sprintf("k%d", i), "Kochi", "", model.HazardFlood, model.UrgencyLow, 0.8))
	}

	hotspots := newTestDetector(3).Detect(posts)

	require.Len(t, hotspots, 2)
	assert.Equal(t, model.UnknownLocation, hotspots[0].Location)
	assert.Equal(t, "hotspot_Unknown Location_Flood_"+fmt.Sprint(detectedAt.Unix()), hotspots[0].ID)
	assert.Nil(t, hotspots[0].LocationDetails)
	assert.Equal(t, "Kochi, Unknown", hotspots[1].Location)
}

func TestDetect_MissingHazardTypeGroupsAsOther(t *testing.T) {
	var posts []model.SocialPost
	for i := 0; i < 2; i++ {
		p := hazardPost(fmt.Sprintf("o%d", i), "Puri", "Odisha", "", model.UrgencyLow, 0.8)
		posts = append(posts, p)
	}

	hotspots := newTestDetector(2).Detect(posts)
	require.Len(t, hotspots, 1)
	assert.Equal(t, model.HazardOther, hotspots[0].HazardType)
}

func TestOverallUrgency_Policy(t *testing.T) {
	tests := []struct {
		name              string
		high, medium, low int
		want              model.Urgency
	}{
		{"exactly 30% high", 3, 0, 7, model.UrgencyHigh},
		{"just under 30% high, 40% medium", 2, 4, 4, model.UrgencyMedium},
		{"high beats medium", 3, 7, 0, model.UrgencyHigh},
		{"39% medium", 0, 39, 61, model.UrgencyLow},
		{"all low", 0, 0, 10, model.UrgencyLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := map[model.Urgency]int{
				model.UrgencyHigh:   tt.high,
				model.UrgencyMedium: tt.medium,
				model.UrgencyLow:    tt.low,
			}
			assert.Equal(t, tt.want, overallUrgency(counts, tt.high+tt.medium+tt.low))
		})
	}
}

func TestLocationDetails_ModeAndCentroid(t *testing.T) {
	mk := func(city, state string, lat, lon *float64) model.SocialPost {
		return model.SocialPost{InferredLocation: &model.InferredLocation{City: city, State: state, Latitude: lat, Longitude: lon}}
	}
	posts := []model.SocialPost{
		mk("Bombay", "Maharashtra", model.Float64(19.0), model.Float64(72.8)),
		mk("Mumbai", "Maharashtra", model.Float64(19.2), model.Float64(73.0)),
		mk("Mumbai", "MH", nil, nil),
		mk("Bombay", "MH", nil, nil),
		{Geo: &model.GeoPoint{Latitude: 10, Longitude: 10}},
	}

	details := locationDetails(posts)

	require.NotNil(t, details)
	assert.Equal(t, "Bombay", details.City, "tie goes to first seen")
	assert.Equal(t, "Maharashtra", details.State)
	assert.Equal(t, 4, details.TotalLocationReferences)
	assert.Equal(t, 3, details.CoordinateCount)
	require.NotNil(t, details.Centroid)
	assert.InDelta(t, (19.0+19.2+10)/3, details.Centroid.Latitude, 1e-9)
	assert.InDelta(t, (72.8+73.0+10)/3, details.Centroid.Longitude, 1e-9)
}

func TestSamples_PreviewAlwaysEllipsized(t *testing.T) {
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'x'
	}
	posts := []model.SocialPost{
		{ID: "short", Text: "short text"},
		{ID: "long", Text: string(long), CleanedText: string(long[:120])},
	}

	got := samples(posts)

	require.Len(t, got, 2)
	assert.Equal(t, "short text...", got[0].TextPreview)
	assert.Equal(t, string(long[:100])+"...", got[1].TextPreview)
	assert.Equal(t, model.UrgencyLow, got[0].Urgency)
}

func TestDetect_RoundsAverageConfidence(t *testing.T) {
	posts := []model.SocialPost{
		hazardPost("a", "Goa", "Goa", model.HazardFlood, model.UrgencyLow, 0.8),
		hazardPost("b", "Goa", "Goa", model.HazardFlood, model.UrgencyLow, 0.85),
		hazardPost("c", "Goa", "Goa", model.HazardFlood, model.UrgencyLow, 0.9),
	}
	posts[2].Analysis.Confidence = 0.9001

	hotspots := newTestDetector(3).Detect(posts)
	require.Len(t, hotspots, 1)
	assert.Equal(t, 0.85, hotspots[0].AverageConfidence)
}

func TestNewDetector_Defaults(t *testing.T) {
	assert.Equal(t, DefaultThreshold, NewDetector(0, nil, nil).Threshold())
	assert.Empty(t, NewDetector(5, nil, nil).Detect(nil))
}

func TestMembers_MatchesDetectionGroup(t *testing.T) {
	posts := mumbaiFloodPosts(20, 5)
	posts = append(posts,
		hazardPost("other-city", "Pune", "Maharashtra", model.HazardFlood, model.UrgencyHigh, 0.9),
		hazardPost("other-hazard", "Mumbai", "Maharashtra", model.PostHazardCyclone, model.UrgencyHigh, 0.9),
	)
	posts[3].IsHazard = false

	hotspots := newTestDetector(19).Detect(posts)
	require.Len(t, hotspots, 1)

	members := Members(hotspots[0], posts)
	assert.Len(t, members, 19)
	assert.Equal(t, hotspots[0].PostCount, len(members))
	for _, m := range members {
		assert.NotEqual(t, "p3", m.ID)
		assert.Equal(t, model.HazardFlood, m.Analysis.HazardType)
	}
}
