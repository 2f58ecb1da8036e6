// Package pipeline runs the correlation scorer against stored reports and
// writes the results back.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/store"
)

// Scorer correlates one report against social media.
type Scorer interface {
	ScoreReport(ctx context.Context, report model.Report) model.ScoredReport
}

// Processor loads a report snapshot, scores it and writes the outcome back.
// It satisfies worker.Processor.
type Processor struct {
	store  store.Reports
	scorer Scorer
	clock  clockwork.Clock
	logger *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock sets the clock used for status-history entries.
func WithClock(c clockwork.Clock) Option {
	return func(p *Processor) { p.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// NewProcessor creates a Processor over the given store and scorer.
func NewProcessor(reports store.Reports, scorer Scorer, opts ...Option) *Processor {
	p := &Processor{
		store:  reports,
		scorer: scorer,
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process scores the stored report with the given id. The correlation fields
// are replaced, never merged. When scoring cannot complete the report is
// written back with zero confidence and a processing error.
func (p *Processor) Process(ctx context.Context, reportID string) error {
	report, err := p.store.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", reportID, err)
	}

	scored, scoreErr := p.score(ctx, report)
	now := p.clock.Now().UTC()

	if scoreErr != nil {
		p.logger.Error("report processing failed", "report_id", reportID, "error", scoreErr)
		report.CorrelationConfidence = model.Float64(0)
		report.ProcessingError = scoreErr.Error()
		report.StatusHistory = append(report.StatusHistory, model.StatusNote{
			At:   now,
			Note: "Agent 2 AI analysis failed: " + scoreErr.Error(),
		})
		// The failure is recorded even when the caller's context is gone.
		if err := p.store.Put(context.WithoutCancel(ctx), report); err != nil {
			return fmt.Errorf("save report %s: %w", reportID, err)
		}
		return fmt.Errorf("score report %s: %w", reportID, scoreErr)
	}

	keywords := scored.Keywords
	report.GeneratedKeywords = &keywords
	report.SocialMediaCorrelations = scored.Correlations
	if report.SocialMediaCorrelations == nil {
		report.SocialMediaCorrelations = []model.CorrelationResult{}
	}
	report.CorrelationConfidence = model.Float64(scored.OverallConfidence)
	report.ProcessingError = ""
	report.StatusHistory = append(report.StatusHistory, model.StatusNote{
		At:   now,
		Note: CompletionNote(len(scored.Correlations), scored.OverallConfidence),
	})

	if err := p.store.Put(ctx, report); err != nil {
		return fmt.Errorf("save report %s: %w", reportID, err)
	}
	return nil
}

// CompletionNote is the status-history entry appended after a successful run.
func CompletionNote(correlations int, confidence float64) string {
	return fmt.Sprintf("Agent 2 AI analysis completed. Found %d social media correlations with %.2f confidence.",
		correlations, confidence)
}

func (p *Processor) score(ctx context.Context, report model.Report) (scored model.ScoredReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer panic: %v", r)
		}
	}()
	scored = p.scorer.ScoreReport(ctx, report)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return model.ScoredReport{}, ctxErr
	}
	return scored, nil
}
