// Package httpapi exposes report submission, clustering and hotspot
// detection over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/store"
)

const maxBodyBytes = 10 << 20

// Enqueuer schedules a stored report for background processing.
type Enqueuer interface {
	Enqueue(reportID string) error
}

// Analyzer attaches relevance analysis to feed posts.
type Analyzer interface {
	Analyze(ctx context.Context, posts []model.SocialPost) []model.SocialPost
}

// HotspotVerifier attaches corroboration to detected hotspots.
type HotspotVerifier interface {
	VerifyHotspots(ctx context.Context, hotspots []model.Hotspot, posts []model.SocialPost) []model.Hotspot
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	reports   store.Reports
	queue     Enqueuer
	analyzer  Analyzer
	verifier  HotspotVerifier
	radiusKm  float64
	threshold int
	checks    map[string]ReadinessCheck
	gatherer  prometheus.Gatherer
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *slog.Logger
	startTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAnalyzer analyzes submitted posts that arrive without analysis.
func WithAnalyzer(a Analyzer) Option { return func(s *Server) { s.analyzer = a } }

// WithVerifier enables ?verify=true on hotspot detection.
func WithVerifier(v HotspotVerifier) Option { return func(s *Server) { s.verifier = v } }

// WithDefaults sets the clustering radius and hotspot threshold used when
// a request does not give one.
func WithDefaults(radiusKm float64, threshold int) Option {
	return func(s *Server) {
		s.radiusKm = radiusKm
		s.threshold = threshold
	}
}

// WithReadinessCheck adds a named check to /readyz.
func WithReadinessCheck(name string, check ReadinessCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.gatherer = g } }

// WithMetrics records hotspot detections.
func WithMetrics(m *observability.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithClock sets the clock used for submission timestamps.
func WithClock(c clockwork.Clock) Option { return func(s *Server) { s.clock = c } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

// NewServer creates a Server over the report store and processing queue.
func NewServer(reports store.Reports, queue Enqueuer, opts ...Option) *Server {
	def := model.DefaultConfig()
	s := &Server{
		reports:   reports,
		queue:     queue,
		radiusKm:  def.Clustering.RadiusKm,
		threshold: def.Hotspots.PostThreshold,
		checks:    make(map[string]ReadinessCheck),
		gatherer:  prometheus.DefaultGatherer,
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.startTime = s.clock.Now()
	return s
}

// Handler returns the routed handler with the standard middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/readyz", s.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/reports", s.submitReport)
		r.Get("/reports/{id}", s.getReport)
		r.Post("/clusters", s.clusterReports)
		r.Post("/hotspots", s.detectHotspots)
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.clock.Now().UTC(),
		"uptime":    s.clock.Since(s.startTime).String(),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			results[name] = "error: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]any{
		"status":    state,
		"timestamp": s.clock.Now().UTC(),
		"checks":    results,
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: s.clock.Now().UTC(),
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return dec.Decode(v)
}
