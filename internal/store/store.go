// Package store keeps submitted reports in memory. Reads return snapshots;
// writers replace whole reports.
package store

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/ppiankov/coastwatch/internal/model"
)

// ErrNotFound is returned for unknown report ids.
var ErrNotFound = errors.New("store: report not found")

// Reports is the storage the report processor and HTTP surface need.
type Reports interface {
	Get(ctx context.Context, id string) (model.Report, error)
	Put(ctx context.Context, report model.Report) error
	List(ctx context.Context) ([]model.Report, error)
}

// Memory is a concurrency-safe in-memory report store.
type Memory struct {
	mu      sync.RWMutex
	reports map[string]model.Report
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{reports: make(map[string]model.Report)}
}

// Get returns a deep copy of the stored report.
func (m *Memory) Get(_ context.Context, id string) (model.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reports[id]
	if !ok {
		return model.Report{}, ErrNotFound
	}
	return clone(r), nil
}

// Put stores a copy of report, replacing any previous version.
func (m *Memory) Put(_ context.Context, report model.Report) error {
	if strings.TrimSpace(report.ID) == "" {
		return errors.New("store: report id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.ID] = clone(report)
	return nil
}

// List returns copies of every report, newest first.
func (m *Memory) List(_ context.Context) ([]model.Report, error) {
	m.mu.RLock()
	out := make([]model.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, clone(r))
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Report) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func clone(r model.Report) model.Report {
	if r.Latitude != nil {
		r.Latitude = model.Float64(*r.Latitude)
	}
	if r.Longitude != nil {
		r.Longitude = model.Float64(*r.Longitude)
	}
	if r.CorrelationConfidence != nil {
		r.CorrelationConfidence = model.Float64(*r.CorrelationConfidence)
	}
	if r.SocialMediaCorrelations != nil {
		corrs := make([]model.CorrelationResult, len(r.SocialMediaCorrelations))
		for i, c := range r.SocialMediaCorrelations {
			c.MatchingElements = slices.Clone(c.MatchingElements)
			corrs[i] = c
		}
		r.SocialMediaCorrelations = corrs
	}
	if r.GeneratedKeywords != nil {
		k := *r.GeneratedKeywords
		k.PrimaryKeywords = slices.Clone(k.PrimaryKeywords)
		k.LocationKeywords = slices.Clone(k.LocationKeywords)
		k.HashtagSuggestions = slices.Clone(k.HashtagSuggestions)
		k.CombinedQueries = slices.Clone(k.CombinedQueries)
		k.LanguageVariations = slices.Clone(k.LanguageVariations)
		r.GeneratedKeywords = &k
	}
	r.StatusHistory = slices.Clone(r.StatusHistory)
	return r
}
