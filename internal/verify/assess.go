package verify

import "github.com/ppiankov/coastwatch/internal/model"

const highRelevance = 0.7

var criticalKeywords = map[string]bool{
	"emergency": true, "disaster": true, "evacuation": true,
	"rescue": true, "casualties": true, "critical": true,
}

// Summarize condenses the corroborating results.
func Summarize(reddit []model.RedditResult, news []model.NewsResult) model.VerificationSummary {
	s := model.VerificationSummary{
		TotalRedditPosts:  len(reddit),
		TotalNewsArticles: len(news),
	}

	keywords := newTermSet()
	sources := newTermSet()

	for _, r := range reddit {
		if r.Relevance > highRelevance {
			s.HighRelevanceReddit++
		}
		s.RedditEngagement.TotalScore += r.Score
		s.RedditEngagement.TotalComments += r.NumComments
		for _, k := range foundKeywords(r.Title + " " + r.Selftext) {
			keywords.add(k)
		}
		sub := r.Subreddit
		if sub == "" {
			sub = "unknown"
		}
		sources.add("r/" + sub)
	}
	if len(reddit) > 0 {
		s.RedditEngagement.AvgScore = float64(s.RedditEngagement.TotalScore) / float64(len(reddit))
	}

	for _, n := range news {
		if n.Relevance > highRelevance {
			s.HighRelevanceNews++
		}
		if n.Authority == model.AuthorityOfficial {
			s.OfficialArticles++
		}
		for _, k := range foundKeywords(n.Title + " " + n.Description) {
			keywords.add(k)
		}
		src := n.Source
		if src == "" {
			src = "unknown"
		}
		sources.add(src)
	}

	s.KeywordsFound = keywords.items
	s.SourcesFound = sources.items
	return s
}

// Assess scores the hotspot's own posts and the corroboration summary and
// maps the points onto a seriousness level.
func Assess(posts []model.SocialPost, s model.VerificationSummary) string {
	return SeriousnessLevel(SeriousnessPoints(posts, s))
}

// SeriousnessPoints adds up the post, corroboration and keyword indicators.
func SeriousnessPoints(posts []model.SocialPost, s model.VerificationSummary) int {
	var highUrgency, highConfidence int
	for _, p := range posts {
		if p.Analysis == nil {
			continue
		}
		if p.Analysis.Urgency == model.UrgencyHigh {
			highUrgency++
		}
		if p.Analysis.Confidence >= 0.8 {
			highConfidence++
		}
	}

	points := 0
	points += tiered(highUrgency, 3, 15, 1, 8)
	points += tiered(highConfidence, 5, 15, 2, 8)
	points += tiered(len(posts), 20, 10, 10, 5)

	engagement := s.RedditEngagement.TotalScore + s.RedditEngagement.TotalComments
	points += tiered(s.HighRelevanceReddit+s.HighRelevanceNews, 3, 15, 1, 8)
	points += tiered(engagement, 100, 10, 20, 5)
	points += tiered(s.TotalNewsArticles, 2, 10, 1, 5)

	critical := 0
	for _, k := range s.KeywordsFound {
		if criticalKeywords[k] {
			critical++
		}
	}
	points += tiered(critical, 3, 15, 1, 8)
	return points
}

// SeriousnessLevel maps points onto CRITICAL/HIGH/MEDIUM/LOW/MINIMAL.
func SeriousnessLevel(points int) string {
	switch {
	case points >= 70:
		return model.SeriousnessCritical
	case points >= 50:
		return model.SeriousnessHigh
	case points >= 30:
		return model.SeriousnessMedium
	case points >= 10:
		return model.SeriousnessLow
	default:
		return model.SeriousnessMinimal
	}
}

func tiered(n, highAt, highPoints, lowAt, lowPoints int) int {
	switch {
	case n >= highAt:
		return highPoints
	case n >= lowAt:
		return lowPoints
	default:
		return 0
	}
}
