package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
)

func TestPostAnalyzer_AnalyzeBatches(t *testing.T) {
	stub := &stubProvider{replyFor: func(req llm.CompletionRequest) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "flooded"):
			return `{"relevance": "hazard", "hazard_type": "Flood", "urgency": "High", "confidence": 0.9, "reasoning": "street flooding"}`, nil
		case strings.Contains(req.Prompt, "forecast"):
			return `{"relevance": "non-hazard", "hazard_type": "Flood", "urgency": "Low", "confidence": 0.8, "reasoning": "forecast"}`, nil
		default:
			return "", errors.New("boom")
		}
	}}
	a := NewPostAnalyzer(stub, 0.75, 2, WithBatchPause(0), WithLogger(observability.NopLogger()))

	posts := []model.SocialPost{
		{ID: "1", Text: "Street flooded in Andheri", InferredLocation: &model.InferredLocation{City: "Mumbai", State: "Maharashtra"}},
		{ID: "2", Text: "IMD forecast for tomorrow"},
		{ID: "3", Text: "something else"},
	}

	out := a.Analyze(context.Background(), posts)

	require.Len(t, out, 3)
	assert.Equal(t, "1", out[0].ID)
	assert.True(t, out[0].IsHazard)
	assert.True(t, out[0].MeetsConfidenceThreshold)
	assert.Equal(t, model.HazardFlood, out[0].Analysis.HazardType)

	assert.False(t, out[1].IsHazard)
	assert.True(t, out[1].MeetsConfidenceThreshold)
	assert.Empty(t, out[1].Analysis.HazardType, "non-hazard clears the type")

	assert.Equal(t, DefaultAnalysis(), *out[2].Analysis)
	assert.False(t, out[2].IsHazard)
	assert.False(t, out[2].MeetsConfidenceThreshold)

	assert.Nil(t, posts[0].Analysis, "input slice is not mutated")
	assert.Equal(t, 3, stub.calls())

	var withLocation string
	for _, r := range stub.requests {
		if strings.Contains(r.Prompt, "Andheri") {
			withLocation = r.Prompt
		}
	}
	assert.Contains(t, withLocation, "Location context: Mumbai, Maharashtra, India")
	assert.Equal(t, 200, stub.requests[0].MaxTokens)
}

func TestPostAnalyzer_Validation(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  model.PostAnalysis
	}{
		{
			"invalid relevance",
			`{"relevance": "maybe", "hazard_type": "Flood", "urgency": "High", "confidence": 0.9, "reasoning": "r"}`,
			model.PostAnalysis{Relevance: model.RelevanceNonHazard, Urgency: model.UrgencyHigh, Confidence: 0.9, Reasoning: "r"},
		},
		{
			"invalid type and urgency",
			`{"relevance": "hazard", "hazard_type": "Landslide", "urgency": "urgent", "confidence": 0.8, "reasoning": "r"}`,
			model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardOther, Urgency: model.UrgencyLow, Confidence: 0.8, Reasoning: "r"},
		},
		{
			"confidence out of range",
			`{"relevance": "hazard", "hazard_type": "High Wave", "urgency": "Medium", "confidence": 1.5}`,
			model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.PostHazardHighWave, Urgency: model.UrgencyMedium, Confidence: 0, Reasoning: "No reasoning provided"},
		},
		{
			"missing type defaults other",
			`{"relevance": "hazard", "urgency": "Low", "confidence": 0.76, "reasoning": "r"}`,
			model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardOther, Urgency: model.UrgencyLow, Confidence: 0.76, Reasoning: "r"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewPostAnalyzer(&stubProvider{reply: tt.reply}, 0, 0, WithBatchPause(0))
			got := a.AnalyzePost(context.Background(), model.SocialPost{ID: "p", Text: "t"})
			require.NotNil(t, got.Analysis)
			assert.Equal(t, tt.want, *got.Analysis)
		})
	}
}

func TestPostAnalyzer_FailureRecordsFallback(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	a := NewPostAnalyzer(&stubProvider{reply: "not json"}, 0, 0, WithMetrics(metrics), WithBatchPause(0))

	got := a.AnalyzePost(context.Background(), model.SocialPost{ID: "p", Text: "t"})

	assert.Equal(t, failedReasoning, got.Analysis.Reasoning)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fallbacks.WithLabelValues("analyzer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("relevance", "invalid")))
}

func TestPostAnalyzer_NoProviderKeepsExistingAnalysis(t *testing.T) {
	a := NewPostAnalyzer(nil, 0.75, 10)
	posts := []model.SocialPost{
		{ID: "1", Analysis: &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardFlood, Urgency: model.UrgencyHigh, Confidence: 0.8}},
		{ID: "2", Analysis: &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardFlood, Confidence: 0.7}},
		{ID: "3"},
	}

	out := a.Analyze(context.Background(), posts)

	assert.True(t, out[0].IsHazard && out[0].MeetsConfidenceThreshold)
	assert.True(t, out[1].IsHazard)
	assert.False(t, out[1].MeetsConfidenceThreshold)
	assert.Nil(t, out[2].Analysis)
	assert.False(t, out[2].IsHazard)
}

func TestSummarize(t *testing.T) {
	posts := []model.SocialPost{
		{IsHazard: true, MeetsConfidenceThreshold: true, Analysis: &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardFlood, Urgency: model.UrgencyHigh, Confidence: 0.9}},
		{IsHazard: true, MeetsConfidenceThreshold: true, Analysis: &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.PostHazardCyclone, Urgency: model.UrgencyMedium, Confidence: 0.8}},
		{IsHazard: true, MeetsConfidenceThreshold: false, Analysis: &model.PostAnalysis{Relevance: model.RelevanceHazard, HazardType: model.HazardFlood, Urgency: model.UrgencyHigh, Confidence: 0.5}},
		{IsHazard: false, MeetsConfidenceThreshold: true, Analysis: &model.PostAnalysis{Relevance: model.RelevanceNonHazard, Urgency: model.UrgencyLow, Confidence: 0.95}},
	}

	s := Summarize(posts, 0.75)

	assert.Equal(t, 4, s.TotalPostsAnalyzed)
	assert.Equal(t, 2, s.HazardPostsDetected)
	assert.Equal(t, 3, s.HighConfidencePosts)
	assert.Equal(t, 1, s.UrgentPosts)
	assert.Equal(t, map[string]int{model.HazardFlood: 1, model.PostHazardCyclone: 1}, s.HazardTypeBreakdown)
	assert.Equal(t, map[model.Urgency]int{model.UrgencyHigh: 1, model.UrgencyMedium: 1, model.UrgencyLow: 1}, s.UrgencyBreakdown)
	assert.Equal(t, 0.75, s.ConfidenceThreshold)

	assert.Len(t, PostsByHazardType(posts, model.HazardFlood), 1)
	assert.Empty(t, PostsByHazardType(posts, model.HazardTsunami))
}
