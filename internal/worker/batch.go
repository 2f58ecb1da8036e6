package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/coastwatch/internal/model"
)

// Scorer scores one report. correlate.Scorer satisfies it.
type Scorer interface {
	ScoreReport(ctx context.Context, report model.Report) model.ScoredReport
}

// ScoreJob scores a single report.
type ScoreJob struct {
	Report model.Report
	Scorer Scorer
}

// Execute runs the job.
func (j *ScoreJob) Execute(ctx context.Context) Result {
	scored := j.Scorer.ScoreReport(ctx, j.Report)
	return &ScoreResult{Report: j.Report, Scored: scored, Err: ctx.Err()}
}

// ScoreResult pairs a report with its scoring output.
type ScoreResult struct {
	Report model.Report
	Scored model.ScoredReport
	Err    error
}

// GetError returns the error, set only when the batch was cancelled.
func (r *ScoreResult) GetError() error {
	return r.Err
}

// BatchScorer scores many reports concurrently.
type BatchScorer struct {
	scorer      Scorer
	concurrency int
}

// NewBatchScorer creates a batch scorer.
func NewBatchScorer(scorer Scorer, concurrency int) *BatchScorer {
	return &BatchScorer{scorer: scorer, concurrency: concurrency}
}

// ScoreReports scores reports and returns results in input order.
func (b *BatchScorer) ScoreReports(ctx context.Context, reports []model.Report) []*ScoreResult {
	if len(reports) == 0 {
		return []*ScoreResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, r := range reports {
		pool.Submit(&ScoreJob{Report: r, Scorer: b.scorer})
	}
	results := pool.Wait()

	out := make([]*ScoreResult, len(results))
	for i, r := range results {
		if r == nil {
			out[i] = &ScoreResult{Report: reports[i], Err: context.Canceled}
			continue
		}
		out[i] = r.(*ScoreResult)
	}
	return out
}

// ScoreFile reads reports from path and scores them.
func (b *BatchScorer) ScoreFile(ctx context.Context, path string) ([]*ScoreResult, error) {
	reports, err := ReadReportsFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reports: %w", err)
	}
	return b.ScoreReports(ctx, reports), nil
}

// ReadReportsFromFile reads a JSON array of reports, or one JSON report per
// line. Blank lines and lines starting with '#' are skipped.
func ReadReportsFromFile(path string) ([]model.Report, error) {
	return ReadRecordsFromFile[model.Report](path)
}

// ReadRecordsFromFile reads a JSON array of T, or one JSON value per line.
func ReadRecordsFromFile[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []T
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return records, nil
	}

	var records []T
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		var r T
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return records, nil
}
