// Package verify corroborates detected hotspots against Reddit and news
// search and assigns a seriousness level.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/coastwatch/internal/hotspot"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/util"
	"github.com/ppiankov/coastwatch/internal/worker"
)

// Verifier looks up corroborating sources for hotspots.
type Verifier struct {
	cfg     model.VerificationConfig
	reddit  *RedditSearcher
	news    *NewsSearcher
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Verifier.
type Option func(*verifierOptions)

type verifierOptions struct {
	http    *http.Client
	limiter *worker.Limiter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// WithHTTPClient sets the client for source and robots.txt requests.
func WithHTTPClient(c *http.Client) Option { return func(o *verifierOptions) { o.http = c } }

// WithLimiter sets the per-host limiter.
func WithLimiter(l *worker.Limiter) Option { return func(o *verifierOptions) { o.limiter = l } }

// WithClock sets the clock for verification timestamps.
func WithClock(c clockwork.Clock) Option { return func(o *verifierOptions) { o.clock = c } }

// WithMetrics records lookups per source.
func WithMetrics(m *observability.Metrics) Option { return func(o *verifierOptions) { o.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *verifierOptions) { o.logger = l } }

// NewVerifier creates a Verifier from cfg. Zero fields take the defaults.
func NewVerifier(cfg model.VerificationConfig, opts ...Option) *Verifier {
	def := model.DefaultConfig().Verification
	if cfg.RedditSearchURL == "" {
		cfg.RedditSearchURL = def.RedditSearchURL
	}
	if cfg.NewsSearchURL == "" {
		cfg.NewsSearchURL = def.NewsSearchURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}

	o := verifierOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.http == nil {
		o.http = util.NewHTTPClient(util.Seconds(cfg.Timeout), 10*time.Second, util.ProxyConfig{})
	}
	if o.limiter == nil {
		o.limiter = worker.NewLimiter(cfg.RequestsPerSecond, 1)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	var robots *RobotsChecker
	if cfg.RespectRobots {
		robots = NewRobotsChecker(o.http, cfg.UserAgent)
	}
	fetcher := NewFetcher(o.http, cfg.UserAgent, robots, o.limiter)
	authority := NewAuthorityClassifier(cfg.OfficialDomains, cfg.EstablishedDomains)

	return &Verifier{
		cfg:     cfg,
		reddit:  NewRedditSearcher(fetcher, cfg.RedditSearchURL, cfg.MaxResults),
		news:    NewNewsSearcher(fetcher, cfg.NewsSearchURL, cfg.MaxResults, authority),
		clock:   o.clock,
		metrics: o.metrics,
		logger:  o.logger,
	}
}

// Verify corroborates one hotspot given the posts that formed it.
// A failing source contributes no results.
func (v *Verifier) Verify(ctx context.Context, h model.Hotspot, posts []model.SocialPost) model.Verification {
	terms := SearchTerms(h.Location, h.HazardType, posts)
	v.logger.Info("verifying hotspot", "hotspot_id", h.ID, "location", h.Location, "hazard", h.HazardType, "terms", len(terms))

	result := model.Verification{
		VerifiedAt:    v.clock.Now(),
		Location:      h.Location,
		HazardType:    h.HazardType,
		SearchTerms:   terms,
		RedditResults: []model.RedditResult{},
		NewsResults:   []model.NewsResult{},
		Seriousness:   model.SeriousnessUnknown,
	}

	if v.cfg.RedditEnabled {
		found, err := v.reddit.Search(ctx, terms)
		v.record("reddit", err)
		if err == nil {
			result.RedditResults = found
		}
	}
	if v.cfg.NewsEnabled {
		found, err := v.news.Search(ctx, terms)
		v.record("news", err)
		if err == nil {
			result.NewsResults = found
		}
	}

	result.Summary = Summarize(result.RedditResults, result.NewsResults)
	result.Seriousness = Assess(posts, result.Summary)

	v.logger.Info("hotspot verification complete", "hotspot_id", h.ID,
		"seriousness", result.Seriousness,
		"reddit", len(result.RedditResults),
		"news", len(result.NewsResults))
	return result
}

// VerifyHotspots returns copies of hotspots with verification attached.
// posts is the analyzed feed the hotspots were detected from.
func (v *Verifier) VerifyHotspots(ctx context.Context, hotspots []model.Hotspot, posts []model.SocialPost) []model.Hotspot {
	out := make([]model.Hotspot, len(hotspots))
	copy(out, hotspots)
	if !v.cfg.Enabled {
		return out
	}
	for i := range out {
		if ctx.Err() != nil {
			break
		}
		verification := v.Verify(ctx, out[i], hotspot.Members(out[i], posts))
		out[i].Verification = &verification
	}
	return out
}

func (v *Verifier) record(source string, err error) {
	outcome := "success"
	switch {
	case errors.Is(err, ErrDisallowed):
		outcome = "disallowed"
		v.logger.Warn("source disallowed by robots.txt", "source", source, "error", err)
	case err != nil:
		outcome = "error"
		v.logger.Warn("verification source failed", "source", source, "error", err)
	}
	if v.metrics != nil {
		v.metrics.VerificationRequests.WithLabelValues(source, outcome).Inc()
	}
}
