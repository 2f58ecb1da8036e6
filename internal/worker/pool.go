// Package worker runs report scoring in the background: a fixed pool for
// batch runs, a fire-and-forget queue for submissions, per-key rate limits,
// and per-report locks.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work executed by a Pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of a Job.
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool executes jobs on a fixed number of goroutines. Wait returns results in
// submission order.
type Pool struct {
	workers   int
	jobs      chan indexedJob
	results   chan indexedResult
	submitted int
	collected []indexedResult
	collector chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewPool creates a pool. Non-positive worker counts become 1.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:   workers,
		jobs:      make(chan indexedJob, workers*2),
		results:   make(chan indexedResult, workers*2),
		ctx:       ctx,
		cancel:    cancel,
		collector: make(chan struct{}),
	}
}

// Start launches the workers and the result collector.
func (p *Pool) Start() {
	for range p.workers {
		p.wg.Add(1)
		go p.run()
	}
	go func() {
		defer close(p.collector)
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			r := j.job.Execute(p.ctx)
			select {
			case p.results <- indexedResult{index: j.index, result: r}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It is a no-op after Shutdown. Submit and Wait must be
// called from the same goroutine.
func (p *Pool) Submit(job Job) {
	select {
	case <-p.ctx.Done():
	case p.jobs <- indexedJob{index: p.submitted, job: job}:
		p.submitted++
	}
}

// Wait closes the pool to new jobs, waits for the submitted ones, and
// returns their results in submission order. Jobs abandoned by Shutdown
// leave nil entries.
func (p *Pool) Wait() []Result {
	close(p.jobs)
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	<-p.collector
	out := make([]Result, p.submitted)
	for _, r := range p.collected {
		out[r.index] = r.result
	}
	return out
}

// Shutdown cancels running jobs and stops the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() { close(p.results) })
}
