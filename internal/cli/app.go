package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/ppiankov/coastwatch/internal/cache"
	"github.com/ppiankov/coastwatch/internal/classify"
	"github.com/ppiankov/coastwatch/internal/correlate"
	"github.com/ppiankov/coastwatch/internal/keywords"
	"github.com/ppiankov/coastwatch/internal/llm"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/search"
	"github.com/ppiankov/coastwatch/internal/verify"
)

// app holds everything a command needs, built once from the merged config.
type app struct {
	cfg      *model.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	provider llm.Provider
	cache    cache.Cache
}

// newApp loads the config and builds the shared logger, metrics, language
// model provider and result cache.
func newApp(metrics *observability.Metrics) (*app, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if viper.GetBool("verbose") {
		level = "debug"
	}
	logger := observability.NewLogger(level, cfg.Log.Format, os.Stderr)

	if metrics == nil {
		// One-shot commands keep their counters in a private registry.
		metrics = observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}

	if !cfg.Correlation.DisableLLM {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.Search))
		if err != nil {
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		a.provider = provider
	}
	if a.provider == nil {
		logger.Info("no language model configured, using keyword fallbacks")
	} else {
		logger.Debug("language model ready", "provider", a.provider.Name(), "model", cfg.LLM.Model)
	}

	if cfg.Cache.Enabled {
		a.cache = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL, a.clock)
	}
	return a, nil
}

// scorer wires the correlation pipeline: keywords, social search and
// per-post classification.
func (a *app) scorer() *correlate.Scorer {
	classifier := classify.NewClassifier(a.provider,
		classify.WithCache(a.cache),
		classify.WithMetrics(a.metrics),
		classify.WithLogger(a.logger),
	)
	generator := keywords.NewGenerator(a.provider,
		keywords.WithCache(a.cache),
		keywords.WithMetrics(a.metrics),
		keywords.WithLogger(a.logger),
	)
	client := search.NewClient(a.cfg.Search,
		search.WithClock(a.clock),
		search.WithMetrics(a.metrics),
		search.WithLogger(a.logger),
	)
	return correlate.NewScorer(generator, client, classifier,
		correlate.WithMinScore(a.cfg.Correlation.MinScore),
		correlate.WithWorkers(a.cfg.Correlation.ClassifyWorkers),
		correlate.WithClock(a.clock),
		correlate.WithMetrics(a.metrics),
		correlate.WithLogger(a.logger),
	)
}

// analyzer builds the feed relevance analyzer used before hotspot detection.
func (a *app) analyzer() *classify.PostAnalyzer {
	return classify.NewPostAnalyzer(a.provider,
		a.cfg.Hotspots.ConfidenceThreshold,
		a.cfg.Hotspots.AnalysisBatchSize,
		classify.WithCache(a.cache),
		classify.WithMetrics(a.metrics),
		classify.WithLogger(a.logger),
	)
}

// verifier builds the hotspot corroboration client.
func (a *app) verifier() *verify.Verifier {
	return verify.NewVerifier(a.cfg.Verification,
		verify.WithClock(a.clock),
		verify.WithMetrics(a.metrics),
		verify.WithLogger(a.logger),
	)
}
