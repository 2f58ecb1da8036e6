// Package hotspot flags bursts of same-hazard social posts about one place.
package hotspot

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/coastwatch/internal/model"
)

// DefaultThreshold is the minimum number of posts that makes a hotspot.
const DefaultThreshold = 20

// sampleSize caps the contributing posts kept on a hotspot.
const sampleSize = 10

// Overall urgency policy: share of posts at a level needed to claim it.
const (
	highShare   = 0.3
	mediumShare = 0.4
)

// Detector groups classified posts by (location, hazard type) and emits a
// hotspot for every group at or above the threshold.
type Detector struct {
	threshold int
	clock     clockwork.Clock
	logger    *slog.Logger
}

// NewDetector creates a detector. A non-positive threshold selects DefaultThreshold;
// nil clock and logger select the real clock and slog.Default().
func NewDetector(threshold int, clock clockwork.Clock, logger *slog.Logger) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{threshold: threshold, clock: clock, logger: logger}
}

// Threshold returns the effective post-count threshold.
func (d *Detector) Threshold() int {
	return d.threshold
}

// Detect returns hotspots in first-seen (location, hazard) order.
// Only posts flagged both is_hazard and meets_confidence_threshold count.
func (d *Detector) Detect(posts []model.SocialPost) []model.Hotspot {
	var eligible []model.SocialPost
	for _, p := range posts {
		if p.IsHazard && p.MeetsConfidenceThreshold {
			eligible = append(eligible, p)
		}
	}

	hotspots := []model.Hotspot{}
	if len(eligible) == 0 {
		return hotspots
	}

	d.logger.Debug("grouping hazard posts", "eligible", len(eligible), "total", len(posts))

	byLocation := newGroups()
	for _, p := range eligible {
		byLocation.add(locationKey(p), p)
	}

	for _, loc := range byLocation.keys {
		locPosts := byLocation.posts[loc]
		if len(locPosts) < d.threshold {
			continue
		}

		byHazard := newGroups()
		for _, p := range locPosts {
			byHazard.add(hazardType(p), p)
		}

		for _, hazard := range byHazard.keys {
			group := byHazard.posts[hazard]
			if len(group) >= d.threshold {
				hotspots = append(hotspots, d.build(loc, hazard, group))
			}
		}
	}

	d.logger.Info("hotspot detection complete", "hotspots", len(hotspots), "eligible_posts", len(eligible))
	return hotspots
}

func (d *Detector) build(loc, hazard string, posts []model.SocialPost) model.Hotspot {
	now := d.clock.Now()
	counts := map[model.Urgency]int{
		model.UrgencyLow:    0,
		model.UrgencyMedium: 0,
		model.UrgencyHigh:   0,
	}

	var confSum float64
	var timeRange *model.TimeRange
	for _, p := range posts {
		urgency, confidence := analysisOf(p)
		counts[urgency]++
		confSum += confidence

		if p.CreatedAt.IsZero() {
			continue
		}
		if timeRange == nil {
			timeRange = &model.TimeRange{Start: p.CreatedAt, End: p.CreatedAt}
			continue
		}
		if p.CreatedAt.Before(timeRange.Start) {
			timeRange.Start = p.CreatedAt
		}
		if p.CreatedAt.After(timeRange.End) {
			timeRange.End = p.CreatedAt
		}
	}
	if timeRange != nil {
		timeRange.DurationMinutes = timeRange.End.Sub(timeRange.Start).Minutes()
	}

	n := len(posts)
	return model.Hotspot{
		ID:                fmt.Sprintf("hotspot_%s_%s_%d", strings.ReplaceAll(loc, ", ", "_"), hazard, now.Unix()),
		Location:          loc,
		LocationDetails:   locationDetails(posts),
		HazardType:        hazard,
		PostCount:         n,
		UrgencyBreakdown:  counts,
		OverallUrgency:    overallUrgency(counts, n),
		AverageConfidence: round3(confSum / float64(n)),
		TimeRange:         timeRange,
		DetectionTime:     now,
		Status:            model.HotspotStatusPending,
		ContributingPosts: samples(posts),
	}
}

// overallUrgency applies the fixed share policy: High at >=30% High posts,
// else Medium at >=40% Medium posts, else Low.
func overallUrgency(counts map[model.Urgency]int, n int) model.Urgency {
	total := float64(n)
	switch {
	case float64(counts[model.UrgencyHigh]) >= total*highShare:
		return model.UrgencyHigh
	case float64(counts[model.UrgencyMedium]) >= total*mediumShare:
		return model.UrgencyMedium
	default:
		return model.UrgencyLow
	}
}

func locationKey(p model.SocialPost) string {
	loc := p.InferredLocation
	if loc == nil {
		return model.UnknownLocation
	}
	city, state := loc.City, loc.State
	if city == "" {
		city = "Unknown"
	}
	if state == "" {
		state = "Unknown"
	}
	return city + ", " + state
}

func hazardType(p model.SocialPost) string {
	if p.Analysis == nil || p.Analysis.HazardType == "" {
		return model.HazardOther
	}
	return p.Analysis.HazardType
}

func analysisOf(p model.SocialPost) (model.Urgency, float64) {
	if p.Analysis == nil {
		return model.UrgencyLow, 0
	}
	u := p.Analysis.Urgency
	if !u.Valid() {
		u = model.UrgencyLow
	}
	return u, p.Analysis.Confidence
}

// locationDetails takes the most frequent city and state (ties go to the
// first seen) and the centroid of the posts that carry coordinates.
func locationDetails(posts []model.SocialPost) *model.LocationDetails {
	cities := newTally()
	states := newTally()
	refs := 0
	var sumLat, sumLon float64
	coords := 0

	for _, p := range posts {
		if loc := p.InferredLocation; loc != nil {
			refs++
			cities.add(loc.City)
			states.add(loc.State)
			if loc.HasCoordinates() {
				sumLat += *loc.Latitude
				sumLon += *loc.Longitude
				coords++
				continue
			}
		}
		if p.Geo != nil {
			sumLat += p.Geo.Latitude
			sumLon += p.Geo.Longitude
			coords++
		}
	}

	if refs == 0 {
		return nil
	}

	details := &model.LocationDetails{
		City:                    cities.mode(),
		State:                   states.mode(),
		Country:                 "India",
		CoordinateCount:         coords,
		TotalLocationReferences: refs,
	}
	if coords > 0 {
		details.Centroid = &model.GeoPoint{
			Latitude:  sumLat / float64(coords),
			Longitude: sumLon / float64(coords),
		}
	}
	return details
}

func samples(posts []model.SocialPost) []model.PostSample {
	n := len(posts)
	if n > sampleSize {
		n = sampleSize
	}
	out := make([]model.PostSample, 0, n)
	for _, p := range posts[:n] {
		urgency, confidence := analysisOf(p)
		out = append(out, model.PostSample{
			ID:          p.ID,
			TextPreview: truncate(p.Body(), 100) + "...",
			Confidence:  confidence,
			Urgency:     urgency,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// groups keeps insertion order so output is deterministic.
type groups struct {
	keys  []string
	posts map[string][]model.SocialPost
}

func newGroups() *groups {
	return &groups{posts: make(map[string][]model.SocialPost)}
}

func (g *groups) add(key string, p model.SocialPost) {
	if _, ok := g.posts[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.posts[key] = append(g.posts[key], p)
}

type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: make(map[string]int)}
}

func (t *tally) add(v string) {
	if v == "" {
		return
	}
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v]++
}

func (t *tally) mode() string {
	best, bestN := "", 0
	for _, v := range t.order {
		if t.counts[v] > bestN {
			best, bestN = v, t.counts[v]
		}
	}
	return best
}

// Members returns the posts that make up h: eligible posts sharing its
// location key and hazard type, in input order.
func Members(h model.Hotspot, posts []model.SocialPost) []model.SocialPost {
	var out []model.SocialPost
	for _, p := range posts {
		if !p.IsHazard || !p.MeetsConfidenceThreshold {
			continue
		}
		if locationKey(p) == h.Location && hazardType(p) == h.HazardType {
			out = append(out, p)
		}
	}
	return out
}
