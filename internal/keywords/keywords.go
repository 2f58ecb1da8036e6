// Package keywords builds the search vocabulary for a citizen report.
package keywords

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/coastwatch/internal/cache"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
)

// ErrNoQueries means the model answered without any usable query string.
var ErrNoQueries = errors.New("keywords: no combined queries")

const (
	maxTokens   = 500
	temperature = 0.1
	cacheTTL    = 6 * time.Hour

	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Generator produces a KeywordBundle per report, through the language model
// when one is configured and from the static table otherwise.
type Generator struct {
	provider llm.Provider
	cache    cache.Cache
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithCache caches bundles by report content.
func WithCache(c cache.Cache) Option { return func(g *Generator) { g.cache = c } }

// WithMetrics records LLM outcomes and fallbacks.
func WithMetrics(m *observability.Metrics) Option { return func(g *Generator) { g.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

// NewGenerator creates a generator. A nil provider always uses the fallback.
func NewGenerator(provider llm.Provider, opts ...Option) *Generator {
	g := &Generator{provider: provider}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Generate returns the keyword bundle for report. It never fails: any
// remote error selects Fallback.
func (g *Generator) Generate(ctx context.Context, report model.Report) model.KeywordBundle {
	bundle, err := g.generate(ctx, report)
	if err == nil {
		return bundle
	}
	if !errors.Is(err, llm.ErrNotConfigured) {
		g.logger.Warn("keyword generation failed, using fallback table", "report_id", report.ID, "error", err)
	}
	if g.metrics != nil {
		g.metrics.Fallbacks.WithLabelValues("keywords").Inc()
	}
	return Fallback(report)
}

func (g *Generator) generate(ctx context.Context, report model.Report) (model.KeywordBundle, error) {
	if g.provider == nil {
		return model.KeywordBundle{}, llm.ErrNotConfigured
	}

	prompt := userPrompt(report)
	key := cache.Key("keywords", prompt)
	var cached model.KeywordBundle
	if cache.GetJSON(g.cache, key, &cached) {
		return cached, nil
	}

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		g.record("error")
		return model.KeywordBundle{}, fmt.Errorf("generate keywords: %w", err)
	}

	bundle, err := parseBundle(resp.Content)
	if err != nil {
		g.record("invalid")
		return model.KeywordBundle{}, err
	}
	g.record("success")

	if err := cache.SetJSON(g.cache, key, bundle, cacheTTL); err != nil {
		g.logger.Debug("keyword cache write failed", "error", err)
	}
	return bundle, nil
}

func (g *Generator) record(outcome string) {
	if g.metrics != nil {
		g.metrics.LLMCalls.WithLabelValues("keywords", outcome).Inc()
	}
}

type rawBundle struct {
	PrimaryKeywords    stringList `json:"primary_keywords"`
	LocationKeywords   stringList `json:"location_keywords"`
	HashtagSuggestions stringList `json:"hashtag_suggestions"`
	CombinedQueries    stringList `json:"combined_queries"`
	LanguageVariations stringList `json:"language_variations"`
}

func parseBundle(content string) (model.KeywordBundle, error) {
	var raw rawBundle
	if err := llm.DecodeJSON(content, &raw); err != nil {
		return model.KeywordBundle{}, fmt.Errorf("decode keywords: %w", err)
	}
	if len(raw.CombinedQueries) == 0 {
		return model.KeywordBundle{}, ErrNoQueries
	}
	return model.KeywordBundle{
		PrimaryKeywords:    nonNil(raw.PrimaryKeywords),
		LocationKeywords:   nonNil(raw.LocationKeywords),
		HashtagSuggestions: nonNil(raw.HashtagSuggestions),
		CombinedQueries:    raw.CombinedQueries,
		LanguageVariations: nonNil(raw.LanguageVariations),
		Source:             SourceLLM,
	}, nil
}

func nonNil(l stringList) []string {
	if l == nil {
		return []string{}
	}
	return l
}

var fallbackTable = map[string][]string{
	"flood":      {"flood", "flooding", "waterlogged", "inundated"},
	"cyclone":    {"cyclone", "storm", "hurricane", "typhoon"},
	"tsunami":    {"tsunami", "tidal wave", "sea wave"},
	"high_waves": {"high waves", "rough seas", "giant waves"},
}

// Fallback builds a bundle from the static hazard table and the report city.
func Fallback(report model.Report) model.KeywordBundle {
	hazard := strings.ToLower(report.HazardType)
	city := strings.ToLower(report.City)

	primary, ok := fallbackTable[hazard]
	if !ok {
		primary = []string{hazard, "disaster", "emergency"}
	}
	location := []string{}
	if city != "" {
		location = []string{city}
	}

	return model.KeywordBundle{
		PrimaryKeywords:    append([]string(nil), primary...),
		LocationKeywords:   location,
		HashtagSuggestions: []string{"#" + titleCase(hazard), "#Emergency", "#India"},
		CombinedQueries:    []string{hazard + " " + city, hazard + " emergency", "help " + city},
		LanguageVariations: []string{},
		Source:             SourceFallback,
	}
}

// titleCase upper-cases the first letter of every run of letters, so
// "high_waves" becomes "High_Waves".
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		if isLetter && !prevLetter {
			b.WriteString(strings.ToUpper(string(r)))
		} else if isLetter {
			b.WriteString(strings.ToLower(string(r)))
		} else {
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
