package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/ppiankov/coastwatch/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids a fetch.
var ErrDisallowed = errors.New("verify: disallowed by robots.txt")

const (
	maxFetchAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond
	defaultMaxBytes  = 2 << 20
)

// fetchSleepFunc is swapped out in tests.
var fetchSleepFunc = time.Sleep

// StatusError is a non-2xx response from a corroboration source.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher performs polite GETs: robots.txt is consulted, each host is paced by
// the limiter, and transient failures are retried.
type Fetcher struct {
	http      *http.Client
	userAgent string
	maxBytes  int64
	robots    *RobotsChecker
	limiter   *worker.Limiter

	mu    sync.Mutex
	paced map[string]bool
}

// NewFetcher creates a Fetcher. A nil robots checker or limiter disables that check.
func NewFetcher(client *http.Client, userAgent string, robots *RobotsChecker, limiter *worker.Limiter) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		http:      client,
		userAgent: userAgent,
		maxBytes:  defaultMaxBytes,
		robots:    robots,
		limiter:   limiter,
		paced:     make(map[string]bool),
	}
}

// Fetch returns the body of rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, accept string) ([]byte, error) {
	if err := f.checkRobots(ctx, rawURL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := range maxFetchAttempts {
		if attempt > 0 {
			fetchSleepFunc(retryBaseDelay * time.Duration(1<<(attempt-1)))
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if f.limiter != nil {
			if err := f.limiter.WaitHost(ctx, rawURL); err != nil {
				return nil, err
			}
		}

		body, err := f.fetchOnce(ctx, rawURL, accept)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) {
			break
		}
	}
	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// checkRobots returns ErrDisallowed for forbidden paths and applies any
// crawl delay to the host limiter the first time a host is seen.
func (f *Fetcher) checkRobots(ctx context.Context, rawURL string) error {
	if f.robots == nil {
		return nil
	}
	allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	if delay > 0 && f.limiter != nil {
		host, err := worker.HostKey(rawURL)
		if err != nil {
			return err
		}
		f.mu.Lock()
		if !f.paced[host] {
			f.paced[host] = true
			f.limiter.SetRate(host, 1/delay.Seconds(), 1)
		}
		f.mu.Unlock()
	}
	return nil
}

// isRetryableFetchError reports whether a failed fetch may succeed on retry:
// 5xx and 429 responses, refused or reset connections, and timeouts.
func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode >= 500 || status.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
