package keywords

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/coastwatch/internal/cache"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
)

type stubProvider struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Content: s.reply}, nil
}

func mumbaiReport() model.Report {
	return model.Report{
		ID:          "r1",
		Title:       "Flooding in Andheri",
		Description: "Knee-deep water near the station",
		HazardType:  "flood",
		Severity:    "high",
		Latitude:    model.Float64(19.1197),
		Longitude:   model.Float64(72.8468),
		City:        "Mumbai",
		State:       "Maharashtra",
		CreatedAt:   time.Date(2025, 7, 15, 9, 30, 0, 0, time.UTC),
	}
}

func TestFallback(t *testing.T) {
	got := Fallback(mumbaiReport())

	assert.Equal(t, model.KeywordBundle{
		PrimaryKeywords:    []string{"flood", "flooding", "waterlogged", "inundated"},
		LocationKeywords:   []string{"mumbai"},
		HashtagSuggestions: []string{"#Flood", "#Emergency", "#India"},
		CombinedQueries:    []string{"flood mumbai", "flood emergency", "help mumbai"},
		LanguageVariations: []string{},
		Source:             SourceFallback,
	}, got)
}

func TestFallback_Table(t *testing.T) {
	tests := []struct {
		hazard  string
		primary []string
		hashtag string
	}{
		{"Cyclone", []string{"cyclone", "storm", "hurricane", "typhoon"}, "#Cyclone"},
		{"tsunami", []string{"tsunami", "tidal wave", "sea wave"}, "#Tsunami"},
		{"high_waves", []string{"high waves", "rough seas", "giant waves"}, "#High_Waves"},
		{"coastal erosion", []string{"coastal erosion", "disaster", "emergency"}, "#Coastal Erosion"},
	}
	for _, tt := range tests {
		t.Run(tt.hazard, func(t *testing.T) {
			got := Fallback(model.Report{HazardType: tt.hazard})
			assert.Equal(t, tt.primary, got.PrimaryKeywords)
			assert.Equal(t, tt.hashtag, got.HashtagSuggestions[0])
			assert.Empty(t, got.LocationKeywords)
		})
	}
}

func TestFallback_DoesNotShareTable(t *testing.T) {
	a := Fallback(model.Report{HazardType: "flood"})
	a.PrimaryKeywords[0] = "changed"
	b := Fallback(model.Report{HazardType: "flood"})
	assert.Equal(t, "flood", b.PrimaryKeywords[0])
}

func TestGenerate_LLM(t *testing.T) {
	stub := &stubProvider{reply: "```json\n" + `{
		"primary_keywords": ["flood", "waterlogging"],
		"location_keywords": ["mumbai", "bombay", "andheri"],
		"hashtag_suggestions": ["#MumbaiFloods", 7],
		"combined_queries": ["flood mumbai urgent", "waterlogging andheri help"],
		"language_variations": null
	}` + "\n```"}
	metrics := observability.NewMetricsForTesting()
	g := NewGenerator(stub, WithMetrics(metrics), WithLogger(observability.NopLogger()))

	got := g.Generate(context.Background(), mumbaiReport())

	assert.Equal(t, model.KeywordBundle{
		PrimaryKeywords:    []string{"flood", "waterlogging"},
		LocationKeywords:   []string{"mumbai", "bombay", "andheri"},
		HashtagSuggestions: []string{"#MumbaiFloods"},
		CombinedQueries:    []string{"flood mumbai urgent", "waterlogging andheri help"},
		LanguageVariations: []string{},
		Source:             SourceLLM,
	}, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("keywords", "success")))

	require.Len(t, stub.requests, 1)
	prompt := stub.requests[0].Prompt
	assert.Equal(t, systemPrompt, stub.requests[0].System)
	assert.Contains(t, prompt, `Title: "Flooding in Andheri"`)
	assert.Contains(t, prompt, "Hazard Type: flood")
	assert.Contains(t, prompt, "Severity: high")
	assert.Contains(t, prompt, "Location: Mumbai, Maharashtra, India (Coordinates: 19.1197, 72.8468)")
	assert.Contains(t, prompt, "Reported At: 2025-07-15T09:30:00Z")
}

func TestGenerate_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		stub    *stubProvider
		outcome string
	}{
		{"transport error", &stubProvider{err: errors.New("connection refused")}, "error"},
		{"not json", &stubProvider{reply: "flood mumbai"}, "invalid"},
		{"no queries", &stubProvider{reply: `{"primary_keywords": ["flood"], "combined_queries": []}`}, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetricsForTesting()
			g := NewGenerator(tt.stub, WithMetrics(metrics), WithLogger(observability.NopLogger()))

			got := g.Generate(context.Background(), mumbaiReport())

			assert.Equal(t, Fallback(mumbaiReport()), got)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fallbacks.WithLabelValues("keywords")))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("keywords", tt.outcome)))
		})
	}
}

func TestGenerate_NoProvider(t *testing.T) {
	got := NewGenerator(nil).Generate(context.Background(), mumbaiReport())
	assert.Equal(t, SourceFallback, got.Source)
}

func TestGenerate_Cached(t *testing.T) {
	stub := &stubProvider{reply: `{"combined_queries": ["flood mumbai"]}`}
	g := NewGenerator(stub, WithCache(cache.NewMemoryCache(time.Minute, time.Minute)))

	first := g.Generate(context.Background(), mumbaiReport())
	second := g.Generate(context.Background(), mumbaiReport())

	assert.Equal(t, first, second)
	assert.Len(t, stub.requests, 1)
}

func TestUserPrompt_LocationVariants(t *testing.T) {
	r := model.Report{Title: "t", State: "Kerala"}
	assert.Contains(t, userPrompt(r), "Location: Unknown, Kerala, India\n")
	assert.Contains(t, userPrompt(r), "Hazard Type: Unknown")

	r = model.Report{Title: "t"}
	assert.NotContains(t, userPrompt(r), "Location:")
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "High_Waves", titleCase("high_waves"))
	assert.Equal(t, "Storm Surge", titleCase("storm SURGE"))
	assert.Equal(t, "", titleCase(""))
}
