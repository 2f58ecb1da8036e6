// Package correlate scores a citizen report against social posts: it builds
// search queries, fetches posts, classifies each one, and aggregates the
// retained correlations into one confidence value.
package correlate

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/coastwatch/internal/classify"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/score"
)

const (
	// DefaultMinScore is the exclusive lower bound for a retained correlation.
	DefaultMinScore = 0.3

	defaultWorkers = 4

	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// KeywordGenerator builds the search vocabulary for a report.
type KeywordGenerator interface {
	Generate(ctx context.Context, report model.Report) model.KeywordBundle
}

// Searcher fetches posts for a report's queries.
type Searcher interface {
	Search(ctx context.Context, report model.Report, queries []string) []model.SocialPost
}

// Classifier returns a remote hazard judgment for one post.
type Classifier interface {
	Classify(ctx context.Context, text string, ts time.Time, location string) (model.HazardJudgment, error)
}

// Scorer runs the full correlation pipeline for one report at a time.
// Different reports may be scored concurrently; the caller keeps a single
// writer per report.
type Scorer struct {
	keywords   KeywordGenerator
	searcher   Searcher
	classifier Classifier
	minScore   float64
	workers    int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithMinScore overrides the retention cutoff.
func WithMinScore(v float64) Option { return func(s *Scorer) { s.minScore = v } }

// WithWorkers bounds concurrent classification calls per report.
func WithWorkers(n int) Option { return func(s *Scorer) { s.workers = n } }

// WithClock sets the clock used for analyzed-at stamps.
func WithClock(c clockwork.Clock) Option { return func(s *Scorer) { s.clock = c } }

// WithMetrics records scoring metrics.
func WithMetrics(m *observability.Metrics) Option { return func(s *Scorer) { s.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Scorer) { s.logger = l } }

// NewScorer creates a scorer. A nil classifier sends every post to the
// local fallback.
func NewScorer(keywords KeywordGenerator, searcher Searcher, classifier Classifier, opts ...Option) *Scorer {
	s := &Scorer{
		keywords:   keywords,
		searcher:   searcher,
		classifier: classifier,
		minScore:   DefaultMinScore,
		workers:    defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers <= 0 {
		s.workers = 1
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// ScoreReport generates keywords, searches, classifies every unique post and
// aggregates the result. Remote failures degrade to fallbacks; it never
// returns an error.
func (s *Scorer) ScoreReport(ctx context.Context, report model.Report) model.ScoredReport {
	start := s.clock.Now()

	bundle := s.keywords.Generate(ctx, report)
	posts := s.searcher.Search(ctx, report, bundle.CombinedQueries)
	correlations := s.Correlate(ctx, report, posts)
	overall := score.Aggregate(correlations)

	if s.metrics != nil {
		s.metrics.ReportsScored.WithLabelValues("ok").Inc()
		s.metrics.CorrelationsRetained.Add(float64(len(correlations)))
		s.metrics.ScoringDuration.Observe(s.clock.Since(start).Seconds())
	}
	s.logger.Info("report scored",
		"report_id", report.ID,
		"keyword_source", bundle.Source,
		"posts", len(posts),
		"correlations", len(correlations),
		"confidence", overall,
	)

	return model.ScoredReport{
		ReportID:          report.ID,
		Keywords:          bundle,
		Correlations:      correlations,
		OverallConfidence: overall,
		PostsExamined:     len(posts),
	}
}

// Correlate classifies posts against report, keeps results scoring above the
// cutoff, and sorts them by descending score. Equal scores keep post order.
func (s *Scorer) Correlate(ctx context.Context, report model.Report, posts []model.SocialPost) []model.CorrelationResult {
	results := make([]model.CorrelationResult, len(posts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, post := range posts {
		g.Go(func() error {
			results[i] = s.correlatePost(gctx, report, post)
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]model.CorrelationResult, 0, len(results))
	for _, r := range results {
		if r.CorrelationScore > s.minScore {
			kept = append(kept, r)
			continue
		}
		s.logger.Debug("correlation filtered out", "report_id", report.ID, "post_id", r.PostID, "score", r.CorrelationScore)
	}
	slices.SortStableFunc(kept, func(a, b model.CorrelationResult) int {
		return cmp.Compare(b.CorrelationScore, a.CorrelationScore)
	})
	return kept
}

func (s *Scorer) correlatePost(ctx context.Context, report model.Report, post model.SocialPost) model.CorrelationResult {
	location := report.LocationLabel()
	text := post.Text

	source := SourceLLM
	judgment, err := s.classify(ctx, text, post.CreatedAt, location)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.logger.Warn("remote classification failed, using fallback", "post_id", post.ID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.Fallbacks.WithLabelValues("classifier").Inc()
		}
		judgment = classify.Fallback(text, location)
		source = SourceFallback
	}
	if s.metrics != nil {
		s.metrics.PostsClassified.WithLabelValues(source).Inc()
	}

	judgment.Urgency = classify.NormalizeUrgency(judgment.Urgency, judgment.Confidence, text)
	severity, priority := Severity(judgment.Urgency, judgment.Confidence)

	r := model.CorrelationResult{
		HazardJudgment:   judgment,
		CorrelationScore: judgment.Confidence,
		SeverityClass:    severity,
		PriorityScore:    priority,
		MatchingElements: MatchingElements(report, text, judgment),
		PostID:           post.ID,
		PostText:         text,
		PostTextPreview:  model.Preview(text),
		PostAuthor:       orDefault(post.Author, "Unknown"),
		PostSource:       orDefault(post.Source, "twitter"),
		PostLocation:     location,
		AnalyzedAt:       s.clock.Now().UTC(),
		AnalysisSource:   source,
	}
	s.logger.Debug("post scored", "report_id", report.ID, "post_id", post.ID,
		"score", r.CorrelationScore, "urgency", r.Urgency, "source", source)
	return r
}

func (s *Scorer) classify(ctx context.Context, text string, ts time.Time, location string) (model.HazardJudgment, error) {
	if s.classifier == nil {
		return model.HazardJudgment{}, llm.ErrNotConfigured
	}
	return s.classifier.Classify(ctx, text, ts, location)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
