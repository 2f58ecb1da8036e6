package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/coastwatch/internal/model"
)

func analyzedPost(u model.Urgency, conf float64) model.SocialPost {
	return model.SocialPost{Analysis: &model.PostAnalysis{Urgency: u, Confidence: conf}}
}

func TestSummarize(t *testing.T) {
	reddit := []model.RedditResult{
		{Title: "Chennai flooding rescue underway", Subreddit: "chennai", Score: 120, NumComments: 30, Relevance: 0.9},
		{Title: "Weather chat", Score: 10, NumComments: 2, Relevance: 0.2},
	}
	news := []model.NewsResult{
		{Title: "Evacuation ordered", Description: "Disaster teams deployed", Source: "The Hindu", Relevance: 0.8},
		{Title: "Markets", Relevance: 0.1},
	}

	s := Summarize(reddit, news)
	assert.Equal(t, 2, s.TotalRedditPosts)
	assert.Equal(t, 2, s.TotalNewsArticles)
	assert.Equal(t, 1, s.HighRelevanceReddit)
	assert.Equal(t, 1, s.HighRelevanceNews)
	assert.Equal(t, model.RedditEngagement{TotalScore: 130, TotalComments: 32, AvgScore: 65}, s.RedditEngagement)
	assert.Equal(t, []string{"rescue", "flooding", "disaster", "evacuation"}, s.KeywordsFound)
	assert.Equal(t, []string{"r/chennai", "r/unknown", "The Hindu", "unknown"}, s.SourcesFound)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Zero(t, s.RedditEngagement.AvgScore)
	assert.Empty(t, s.KeywordsFound)
	assert.Empty(t, s.SourcesFound)
}

func TestSeriousnessPoints(t *testing.T) {
	var posts []model.SocialPost
	for i := range 25 {
		u := model.UrgencyLow
		if i < 4 {
			u = model.UrgencyHigh
		}
		posts = append(posts, analyzedPost(u, 0.85))
	}

	full := model.VerificationSummary{
		HighRelevanceReddit: 2,
		HighRelevanceNews:   1,
		TotalNewsArticles:   3,
		RedditEngagement:    model.RedditEngagement{TotalScore: 90, TotalComments: 15},
		KeywordsFound:       []string{"emergency", "rescue", "casualties", "flooding"},
	}
	// posts: 15 + 15 + 10, corroboration: 15 + 10 + 10, keywords: 15
	assert.Equal(t, 90, SeriousnessPoints(posts, full))
	assert.Equal(t, model.SeriousnessCritical, Assess(posts, full))

	// Lower tiers: one high-urgency, two confident, ten posts, one source,
	// 20 engagement, one article, one critical keyword.
	posts = posts[:0]
	posts = append(posts, analyzedPost(model.UrgencyHigh, 0.9), analyzedPost(model.UrgencyLow, 0.8))
	for range 8 {
		posts = append(posts, analyzedPost(model.UrgencyLow, 0.5))
	}
	low := model.VerificationSummary{
		HighRelevanceNews: 1,
		TotalNewsArticles: 1,
		RedditEngagement:  model.RedditEngagement{TotalScore: 15, TotalComments: 5},
		KeywordsFound:     []string{"disaster"},
	}
	assert.Equal(t, 8+8+5+8+5+5+8, SeriousnessPoints(posts, low))
	assert.Equal(t, model.SeriousnessMedium, Assess(posts, low))

	assert.Equal(t, 0, SeriousnessPoints(nil, model.VerificationSummary{}))
	assert.Equal(t, model.SeriousnessMinimal, Assess(nil, model.VerificationSummary{}))
}

func TestSeriousnessLevel(t *testing.T) {
	tests := []struct {
		points int
		want   string
	}{
		{100, model.SeriousnessCritical},
		{70, model.SeriousnessCritical},
		{69, model.SeriousnessHigh},
		{50, model.SeriousnessHigh},
		{30, model.SeriousnessMedium},
		{29, model.SeriousnessLow},
		{10, model.SeriousnessLow},
		{9, model.SeriousnessMinimal},
		{0, model.SeriousnessMinimal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeriousnessLevel(tt.points), "points=%d", tt.points)
	}
}
