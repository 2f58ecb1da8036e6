// Package classify turns social post text into structured hazard judgments,
// either through a language model or a local keyword fallback.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ppiankov/coastwatch/internal/cache"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
)

// ErrInvalidJudgment means the model answered but not with a usable judgment.
var ErrInvalidJudgment = errors.New("classify: invalid judgment")

const (
	classifyMaxTokens   = 500
	classifyTemperature = 0.1
	judgmentCacheTTL    = 6 * time.Hour
)

// Option configures a Classifier or PostAnalyzer.
type Option func(*options)

type options struct {
	cache    cache.Cache
	metrics  *observability.Metrics
	logger   *slog.Logger
	pause    time.Duration
	pauseSet bool
	cacheTTL time.Duration
}

// WithCache caches successful remote answers.
func WithCache(c cache.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithMetrics records LLM call outcomes and fallbacks.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBatchPause sets the pause between analysis batches. Zero disables it.
func WithBatchPause(d time.Duration) Option {
	return func(o *options) {
		o.pause = d
		o.pauseSet = true
	}
}

func buildOptions(opts []Option) options {
	o := options{cacheTTL: judgmentCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Classifier asks the language model for a hazard judgment on one post.
type Classifier struct {
	provider llm.Provider
	options
}

// NewClassifier creates a classifier. A nil provider makes every call fail
// with llm.ErrNotConfigured so callers take the fallback.
func NewClassifier(provider llm.Provider, opts ...Option) *Classifier {
	return &Classifier{provider: provider, options: buildOptions(opts)}
}

// Enabled reports whether a remote provider is configured.
func (c *Classifier) Enabled() bool {
	return c.provider != nil
}

// Classify returns the remote judgment for text, posted at ts, about the
// report location label. Urgency is not normalized here. Errors are never
// retried; callers substitute Fallback.
func (c *Classifier) Classify(ctx context.Context, text string, ts time.Time, location string) (model.HazardJudgment, error) {
	if c.provider == nil {
		return model.HazardJudgment{}, llm.ErrNotConfigured
	}

	key := cache.Key("classify", text, ts.UTC().Format(time.DateOnly), location)
	var cached model.HazardJudgment
	if cache.GetJSON(c.cache, key, &cached) {
		return cached, nil
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		System:      hazardSystemPrompt,
		Prompt:      hazardUserPrompt(text, ts, location),
		MaxTokens:   classifyMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		c.record("error")
		return model.HazardJudgment{}, fmt.Errorf("classify post: %w", err)
	}

	j, err := parseJudgment(resp.Content)
	if err != nil {
		c.record("invalid")
		return model.HazardJudgment{}, err
	}
	c.record("success")

	if err := cache.SetJSON(c.cache, key, j, c.cacheTTL); err != nil {
		c.logger.Debug("judgment cache write failed", "error", err)
	}
	return j, nil
}

func (c *Classifier) record(outcome string) {
	if c.metrics != nil {
		c.metrics.LLMCalls.WithLabelValues("classify", outcome).Inc()
	}
}

type rawJudgment struct {
	Language          looseString `json:"original_language"`
	HazardDetected    looseBool   `json:"hazard_detected"`
	HazardType        looseString `json:"hazard_type"`
	Urgency           looseString `json:"urgency"`
	Confidence        looseFloat  `json:"confidence"`
	HistoricalContext looseString `json:"historical_context"`
	SeasonalPattern   looseString `json:"seasonal_pattern"`
	RecommendedAction looseString `json:"recommended_action"`
	Summary           looseString `json:"final_summary"`
}

// parseJudgment decodes a model reply and fills defaults: unknown hazard types
// become Other, unknown urgency Low, missing language "en", out-of-range
// confidence 0. A reply without a usable confidence is rejected.
func parseJudgment(content string) (model.HazardJudgment, error) {
	var raw rawJudgment
	if err := llm.DecodeJSON(content, &raw); err != nil {
		return model.HazardJudgment{}, fmt.Errorf("%w: %v", ErrInvalidJudgment, err)
	}
	if !raw.Confidence.ok {
		return model.HazardJudgment{}, fmt.Errorf("%w: missing confidence", ErrInvalidJudgment)
	}

	conf := raw.Confidence.value
	if conf < 0 || conf > 1 {
		conf = 0
	}

	lang := strings.ToLower(strings.TrimSpace(string(raw.Language)))
	if lang == "" {
		lang = "en"
	}

	return model.HazardJudgment{
		DetectedLanguage:  lang,
		HazardDetected:    bool(raw.HazardDetected),
		HazardType:        canonicalHazard(string(raw.HazardType), model.CorrelationHazardTypes),
		Urgency:           model.ParseUrgency(string(raw.Urgency)),
		Confidence:        conf,
		HistoricalContext: string(raw.HistoricalContext),
		SeasonalPattern:   string(raw.SeasonalPattern),
		RecommendedAction: string(raw.RecommendedAction),
		Summary:           string(raw.Summary),
	}, nil
}

// canonicalHazard matches case-insensitively against allowed and returns the
// canonical spelling, or Other.
func canonicalHazard(s string, allowed []string) string {
	s = strings.TrimSpace(s)
	i := slices.IndexFunc(allowed, func(h string) bool { return strings.EqualFold(h, s) })
	if i < 0 {
		return model.HazardOther
	}
	return allowed[i]
}
