package classify

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/coastwatch/internal/cache"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
)

const (
	// DefaultConfidenceThreshold is the minimum confidence for a post to count toward hotspots.
	DefaultConfidenceThreshold = 0.75

	// DefaultBatchSize is the number of posts analyzed concurrently.
	DefaultBatchSize = 10

	relevanceMaxTokens = 200
	defaultBatchPause  = time.Second
	failedReasoning    = "Analysis failed - default classification applied"
)

// PostAnalyzer attaches feed-level relevance analysis to social posts; its
// output is what the hotspot detector consumes.
type PostAnalyzer struct {
	provider  llm.Provider
	threshold float64
	batchSize int
	options
}

// NewPostAnalyzer creates an analyzer. Non-positive threshold and batch size
// select the defaults.
func NewPostAnalyzer(provider llm.Provider, threshold float64, batchSize int, opts ...Option) *PostAnalyzer {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	o := buildOptions(opts)
	if !o.pauseSet {
		o.pause = defaultBatchPause
	}
	return &PostAnalyzer{provider: provider, threshold: threshold, batchSize: batchSize, options: o}
}

// Threshold returns the confidence threshold.
func (a *PostAnalyzer) Threshold() float64 {
	return a.threshold
}

// Analyze classifies posts in batches and returns them in input order with
// Analysis, IsHazard and MeetsConfidenceThreshold set. Without a provider
// posts keep any analysis they already carry and only the derived flags are
// recomputed.
func (a *PostAnalyzer) Analyze(ctx context.Context, posts []model.SocialPost) []model.SocialPost {
	out := make([]model.SocialPost, len(posts))
	copy(out, posts)

	if a.provider == nil {
		a.logger.Warn("no language model configured, keeping existing post analysis", "posts", len(posts))
		for i := range out {
			a.derive(&out[i])
		}
		return out
	}

	a.logger.Info("starting post analysis", "posts", len(posts), "batch_size", a.batchSize)

	for start := 0; start < len(out); start += a.batchSize {
		end := min(start+a.batchSize, len(out))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				out[i] = a.AnalyzePost(gctx, out[i])
				return nil
			})
		}
		_ = g.Wait()

		if end < len(out) && a.pause > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(a.pause):
			}
		}
	}

	meets := 0
	for _, p := range out {
		if p.MeetsConfidenceThreshold {
			meets++
		}
	}
	a.logger.Info("post analysis complete", "posts", len(out), "above_threshold", meets)
	return out
}

// AnalyzePost classifies one post. Any failure yields the default
// non-hazard analysis.
func (a *PostAnalyzer) AnalyzePost(ctx context.Context, post model.SocialPost) model.SocialPost {
	analysis, err := a.analyze(ctx, post)
	if err != nil {
		a.logger.Warn("post analysis failed, applying default", "post_id", post.ID, "error", err)
		if a.metrics != nil {
			a.metrics.Fallbacks.WithLabelValues("analyzer").Inc()
		}
		analysis = DefaultAnalysis()
	}
	post.Analysis = &analysis
	a.derive(&post)
	return post
}

func (a *PostAnalyzer) analyze(ctx context.Context, post model.SocialPost) (model.PostAnalysis, error) {
	if a.provider == nil {
		return model.PostAnalysis{}, llm.ErrNotConfigured
	}

	text := post.Body()
	var city, state string
	loc := post.InferredLocation
	if loc != nil {
		city, state = loc.City, loc.State
	}

	key := cache.Key("relevance", text, city, state)
	var cached model.PostAnalysis
	if cache.GetJSON(a.cache, key, &cached) {
		return cached, nil
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		System:      relevanceSystemPrompt,
		Prompt:      relevanceUserPrompt(text, city, state, loc != nil),
		MaxTokens:   relevanceMaxTokens,
		Temperature: classifyTemperature,
	})
	if err != nil {
		a.record("error")
		return model.PostAnalysis{}, fmt.Errorf("analyze post: %w", err)
	}

	var raw rawAnalysis
	if err := llm.DecodeJSON(resp.Content, &raw); err != nil {
		a.record("invalid")
		return model.PostAnalysis{}, fmt.Errorf("%w: %v", ErrInvalidJudgment, err)
	}
	a.record("success")

	analysis := validateAnalysis(raw)
	if err := cache.SetJSON(a.cache, key, analysis, a.cacheTTL); err != nil {
		a.logger.Debug("analysis cache write failed", "error", err)
	}
	return analysis, nil
}

func (a *PostAnalyzer) record(outcome string) {
	if a.metrics != nil {
		a.metrics.LLMCalls.WithLabelValues("relevance", outcome).Inc()
	}
}

func (a *PostAnalyzer) derive(p *model.SocialPost) {
	if p.Analysis == nil {
		p.IsHazard = false
		p.MeetsConfidenceThreshold = false
		return
	}
	p.IsHazard = p.Analysis.Relevance == model.RelevanceHazard
	p.MeetsConfidenceThreshold = p.Analysis.Confidence >= a.threshold
}

type rawAnalysis struct {
	Relevance  looseString `json:"relevance"`
	HazardType looseString `json:"hazard_type"`
	Urgency    looseString `json:"urgency"`
	Confidence looseFloat  `json:"confidence"`
	Reasoning  looseString `json:"reasoning"`
}

// validateAnalysis fills defaults and clamps out-of-set values.
func validateAnalysis(raw rawAnalysis) model.PostAnalysis {
	a := model.PostAnalysis{
		Relevance:  string(raw.Relevance),
		HazardType: string(raw.HazardType),
		Urgency:    model.Urgency(raw.Urgency),
		Confidence: raw.Confidence.value,
		Reasoning:  string(raw.Reasoning),
	}

	if a.Relevance != model.RelevanceHazard && a.Relevance != model.RelevanceNonHazard {
		a.Relevance = model.RelevanceNonHazard
	}
	if a.HazardType == "" {
		a.HazardType = model.HazardOther
	}
	if !isPostHazardType(a.HazardType) {
		a.HazardType = model.HazardOther
	}
	if !a.Urgency.Valid() {
		a.Urgency = model.UrgencyLow
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		a.Confidence = 0
	}
	if a.Reasoning == "" {
		a.Reasoning = "No reasoning provided"
	}
	if a.Relevance == model.RelevanceNonHazard {
		a.HazardType = ""
	}
	return a
}

func isPostHazardType(h string) bool {
	for _, t := range model.PostHazardTypes {
		if t == h {
			return true
		}
	}
	return false
}

// DefaultAnalysis is applied when a post cannot be analyzed.
func DefaultAnalysis() model.PostAnalysis {
	return model.PostAnalysis{
		Relevance:  model.RelevanceNonHazard,
		Urgency:    model.UrgencyLow,
		Confidence: 0,
		Reasoning:  failedReasoning,
	}
}

// AnalysisSummary rolls up a batch of analyzed posts.
type AnalysisSummary struct {
	TotalPostsAnalyzed  int                   `json:"total_posts_analyzed"`
	HazardPostsDetected int                   `json:"hazard_posts_detected"`
	HighConfidencePosts int                   `json:"high_confidence_posts"`
	UrgentPosts         int                   `json:"urgent_posts"`
	HazardTypeBreakdown map[string]int        `json:"hazard_type_breakdown"`
	UrgencyBreakdown    map[model.Urgency]int `json:"urgency_breakdown"`
	ConfidenceThreshold float64               `json:"confidence_threshold"`
}

// Summarize counts analyzed posts. Breakdowns only include posts that meet
// the confidence threshold.
func Summarize(posts []model.SocialPost, threshold float64) AnalysisSummary {
	s := AnalysisSummary{
		TotalPostsAnalyzed:  len(posts),
		HazardPostsDetected: len(HazardPosts(posts)),
		UrgentPosts:         len(UrgentPosts(posts)),
		HazardTypeBreakdown: map[string]int{},
		UrgencyBreakdown: map[model.Urgency]int{
			model.UrgencyLow:    0,
			model.UrgencyMedium: 0,
			model.UrgencyHigh:   0,
		},
		ConfidenceThreshold: threshold,
	}

	for _, p := range posts {
		if !p.MeetsConfidenceThreshold {
			continue
		}
		s.HighConfidencePosts++
		if p.Analysis == nil {
			s.UrgencyBreakdown[model.UrgencyLow]++
			continue
		}
		if p.Analysis.HazardType != "" {
			s.HazardTypeBreakdown[p.Analysis.HazardType]++
		}
		u := p.Analysis.Urgency
		if !u.Valid() {
			u = model.UrgencyLow
		}
		s.UrgencyBreakdown[u]++
	}
	return s
}

// HazardPosts keeps hazard posts that meet the confidence threshold.
func HazardPosts(posts []model.SocialPost) []model.SocialPost {
	return filterPosts(posts, func(p model.SocialPost) bool {
		return p.IsHazard && p.MeetsConfidenceThreshold
	})
}

// UrgentPosts keeps High-urgency posts that meet the confidence threshold.
func UrgentPosts(posts []model.SocialPost) []model.SocialPost {
	return filterPosts(posts, func(p model.SocialPost) bool {
		return p.MeetsConfidenceThreshold && p.Analysis != nil && p.Analysis.Urgency == model.UrgencyHigh
	})
}

// PostsByHazardType keeps posts of one hazard type that meet the confidence threshold.
func PostsByHazardType(posts []model.SocialPost, hazard string) []model.SocialPost {
	return filterPosts(posts, func(p model.SocialPost) bool {
		return p.MeetsConfidenceThreshold && p.Analysis != nil && p.Analysis.HazardType == hazard
	})
}

func filterPosts(posts []model.SocialPost, keep func(model.SocialPost) bool) []model.SocialPost {
	out := []model.SocialPost{}
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
