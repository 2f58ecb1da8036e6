// Package search fetches recent social posts for a report's generated
// queries from a RapidAPI-style Twitter search endpoint.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/observability"
	"github.com/ppiankov/coastwatch/internal/util"
	"github.com/ppiankov/coastwatch/internal/worker"
)

// ErrNoCredentials means no API key is configured.
var ErrNoCredentials = errors.New("search: no API credentials")

const (
	SourceRapidAPI  = "rapidapi_twitter"
	SourceSimulated = "simulated_twitter"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// StatusError is a non-200 reply from the search API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: status %d: %s", e.StatusCode, e.Body)
}

// Client queries the search API.
type Client struct {
	cfg     model.SearchConfig
	http    *http.Client
	limiter *worker.Limiter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLimiter replaces the per-report query limiter.
func WithLimiter(l *worker.Limiter) Option { return func(c *Client) { c.limiter = l } }

// WithClock sets the clock used for missing timestamps.
func WithClock(clock clockwork.Clock) Option { return func(c *Client) { c.clock = clock } }

// WithMetrics records fallbacks.
func WithMetrics(m *observability.Metrics) Option { return func(c *Client) { c.metrics = m } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// NewClient creates a search client. Queries for one report are paced at
// cfg.QueriesPerSecond with a burst of one.
func NewClient(cfg model.SearchConfig, opts ...Option) *Client {
	def := model.DefaultConfig().Search
	if cfg.MaxQueries <= 0 {
		cfg.MaxQueries = def.MaxQueries
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.QueriesPerSecond <= 0 {
		cfg.QueriesPerSecond = def.QueriesPerSecond
	}

	c := &Client{cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = util.NewHTTPClient(util.Seconds(cfg.Timeout), defaultTimeout,
			util.ProxyConfig{HTTPProxy: cfg.HTTPProxy, HTTPSProxy: cfg.HTTPSProxy})
	}
	if c.limiter == nil {
		c.limiter = worker.NewLimiter(cfg.QueriesPerSecond, 1)
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Search runs up to MaxQueries of queries for report and returns the posts,
// deduplicated by id with the first occurrence kept. Without credentials, or
// when every query fails, it returns one synthetic post per query instead.
func (c *Client) Search(ctx context.Context, report model.Report, queries []string) []model.SocialPost {
	if len(queries) > c.cfg.MaxQueries {
		queries = queries[:c.cfg.MaxQueries]
	}

	if c.cfg.APIKey == "" {
		c.logger.Warn("search API key not set, using simulated posts", "report_id", report.ID)
		return c.fallback(report, queries)
	}

	key := report.ID
	if key == "" {
		key = "anonymous"
	}
	defer c.limiter.Forget(key)

	var posts []model.SocialPost
	failed := 0
	for _, q := range queries {
		if err := c.limiter.Wait(ctx, key); err != nil {
			c.logger.Warn("search pacing interrupted", "report_id", report.ID, "error", err)
			break
		}
		found, err := c.Query(ctx, q)
		if err != nil {
			failed++
			c.logger.Warn("search query failed", "report_id", report.ID, "query", q, "error", err)
			continue
		}
		posts = append(posts, found...)
	}

	if len(queries) > 0 && failed == len(queries) {
		c.logger.Warn("all search queries failed, using simulated posts", "report_id", report.ID)
		return c.fallback(report, queries)
	}

	unique := Dedupe(posts)
	c.logger.Info("social search complete", "report_id", report.ID, "queries", len(queries), "posts", len(unique))
	return unique
}

func (c *Client) fallback(report model.Report, queries []string) []model.SocialPost {
	if c.metrics != nil {
		c.metrics.Fallbacks.WithLabelValues("search").Inc()
	}
	posts := make([]model.SocialPost, 0, len(queries))
	for range queries {
		posts = append(posts, Simulated(report, c.clock.Now()))
	}
	return posts
}

// Query fetches up to MaxResults latest posts for one query string.
func (c *Client) Query(ctx context.Context, query string) ([]model.SocialPost, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNoCredentials
	}

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	params := u.Query()
	params.Set("query", query)
	params.Set("type", "Latest")
	params.Set("max_results", strconv.Itoa(c.cfg.MaxResults))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	req.Header.Set("X-RapidAPI-Host", c.cfg.Host)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Tweets []json.RawMessage `json:"tweets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	posts := make([]model.SocialPost, 0, len(payload.Tweets))
	for _, raw := range payload.Tweets {
		post, ok := parseTweet(raw, c.clock.Now())
		if !ok {
			continue
		}
		posts = append(posts, post)
	}
	c.logger.Debug("search query returned", "query", query, "posts", len(posts))
	return posts, nil
}

// Dedupe keeps the first post for each id. Posts without an id are dropped.
func Dedupe(posts []model.SocialPost) []model.SocialPost {
	seen := make(map[string]bool, len(posts))
	out := make([]model.SocialPost, 0, len(posts))
	for _, p := range posts {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
