package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ppiankov/coastwatch/internal/observability"
)

// ErrQueueClosed is returned by Enqueue after Close.
var ErrQueueClosed = errors.New("worker: queue closed")

// ErrQueueFull is returned by Enqueue when the buffer is full.
var ErrQueueFull = errors.New("worker: queue full")

const lockPollInterval = 100 * time.Millisecond

// Processor processes one stored report by id.
type Processor interface {
	Process(ctx context.Context, reportID string) error
}

// Queue processes report ids in the background. Submissions never wait for
// processing; two runs for the same id are serialized by the Locker.
type Queue struct {
	processor Processor
	locker    Locker
	lockTTL   time.Duration
	metrics   *observability.Metrics
	logger    *slog.Logger

	ids     chan string
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithLocker sets the report locker. The default is a MemoryLocker.
func WithLocker(l Locker) QueueOption {
	return func(q *Queue) { q.locker = l }
}

// WithLockTTL bounds how long one run may hold a report.
func WithLockTTL(ttl time.Duration) QueueOption {
	return func(q *Queue) { q.lockTTL = ttl }
}

// WithQueueMetrics records queue depth.
func WithQueueMetrics(m *observability.Metrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// WithQueueLogger sets the logger.
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(q *Queue) { q.logger = l }
}

// NewQueue creates a queue with workers goroutines and room for size
// pending ids. Call Start before Enqueue.
func NewQueue(processor Processor, workers, size int, opts ...QueueOption) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = workers
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		processor: processor,
		lockTTL:   5 * time.Minute,
		ids:       make(chan string, size),
		ctx:       ctx,
		cancel:    cancel,
		workers:   workers,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.locker == nil {
		q.locker = NewMemoryLocker()
	}
	if q.logger == nil {
		q.logger = slog.Default()
	}
	return q
}

// Start launches the workers.
func (q *Queue) Start() {
	for range q.workers {
		q.wg.Add(1)
		go q.run()
	}
}

// Enqueue schedules reportID and returns immediately.
func (q *Queue) Enqueue(reportID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ids <- reportID:
		q.depth()
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting ids and waits for the pending ones to finish, or
// for ctx to expire, in which case in-flight runs are cancelled.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.ids)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancel()
		return nil
	case <-ctx.Done():
		q.cancel()
		<-done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for id := range q.ids {
		q.depth()
		q.handle(id)
	}
}

func (q *Queue) handle(id string) {
	unlock, err := Lock(q.ctx, q.locker, id, q.lockTTL, lockPollInterval)
	if err != nil {
		q.logger.Error("report lock failed", "report_id", id, "error", err)
		return
	}
	defer func() {
		if err := unlock(context.Background()); err != nil {
			q.logger.Warn("report unlock failed", "report_id", id, "error", err)
		}
	}()

	if err := q.processor.Process(q.ctx, id); err != nil {
		q.logger.Error("report processing failed", "report_id", id, "error", err)
	}
}

func (q *Queue) depth() {
	if q.metrics != nil {
		q.metrics.QueueDepth.Set(float64(len(q.ids)))
	}
}
