package verify

import (
	"regexp"
	"strings"

	"github.com/ppiankov/coastwatch/internal/model"
)

const (
	maxSearchTerms = 10
	termPostSample = 5
)

var hazardSearchTerms = map[string][]string{
	model.HazardFlood:        {"flood", "flooding", "waterlogged", "inundation"},
	model.HazardTsunami:      {"tsunami", "sea waves", "tidal waves"},
	model.PostHazardHighWave: {"high waves", "rough seas", "wave surge"},
	model.HazardStormSurge:   {"storm surge", "sea level rise", "coastal flooding"},
	model.PostHazardCyclone:  {"cyclone", "hurricane", "typhoon", "storm"},
}

var urgentTerms = []string{"emergency", "rescue", "evacuation", "disaster", "urgent", "help"}

// disasterKeywords are reported in the summary when a source mentions them.
var disasterKeywords = []string{
	"emergency", "disaster", "evacuation", "rescue", "urgent", "critical",
	"flooding", "flooded", "inundated", "waterlogged", "submerged",
	"tsunami", "waves", "surge", "cyclone", "storm", "hurricane",
	"casualties", "damage", "affected", "stranded", "trapped",
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// SearchTerms builds the corroboration vocabulary for a hotspot: location
// parts, hazard terms, then hashtags and urgent words from the first posts.
// Terms are unique in first-seen order, at most ten.
func SearchTerms(location, hazardType string, posts []model.SocialPost) []string {
	terms := newTermSet()

	if location != "" && location != model.UnknownLocation {
		for _, part := range strings.Split(location, ", ") {
			terms.add(part)
		}
	}
	for _, t := range hazardSearchTerms[hazardType] {
		terms.add(t)
	}

	for _, p := range posts[:min(len(posts), termPostSample)] {
		text := strings.ToLower(p.Body())
		for _, tag := range hashtagPattern.FindAllString(text, -1) {
			terms.add(strings.TrimPrefix(tag, "#"))
		}
		for _, w := range urgentTerms {
			if strings.Contains(text, w) {
				terms.add(w)
			}
		}
	}

	if len(terms.items) > maxSearchTerms {
		return terms.items[:maxSearchTerms]
	}
	return terms.items
}

// Relevance weighs each term occurrence by 1/len(terms), capped at 1.
func Relevance(text string, terms []string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	weight := 1.0 / float64(len(terms))

	var score float64
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		score += float64(strings.Count(lower, t)) * weight
	}
	return min(score, 1.0)
}

func foundKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, k := range disasterKeywords {
		if strings.Contains(lower, k) {
			out = append(out, k)
		}
	}
	return out
}

type termSet struct {
	seen  map[string]bool
	items []string
}

func newTermSet() *termSet {
	return &termSet{seen: make(map[string]bool), items: []string{}}
}

func (s *termSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
