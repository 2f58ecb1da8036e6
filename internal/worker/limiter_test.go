package worker

import (
	"context"
	"testing"
	"time"
)

func TestNewLimiter_DefaultBurst(t *testing.T) {
	if l := NewLimiter(0.5, 0); l.defaultBurst != 1 {
		t.Errorf("expected burst 1, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, 3); l.defaultBurst != 3 {
		t.Errorf("expected burst 3, got %d", l.defaultBurst)
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	// One query per two seconds per report.
	limiter := NewLimiter(0.5, 1)

	if !limiter.Allow("report-1") {
		t.Fatal("first query for report-1 should pass")
	}
	if limiter.Allow("report-1") {
		t.Error("second immediate query for report-1 should be held back")
	}
	if !limiter.Allow("report-2") {
		t.Error("report-2 has its own bucket")
	}
}

func TestLimiter_WaitHonoursContext(t *testing.T) {
	limiter := NewLimiter(0.5, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "r"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, "r"); err == nil {
		t.Error("expected the second wait to fail before the next token")
	}
}

func TestLimiter_WaitHost(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.WaitHost(ctx, "https://www.reddit.com/search.json?q=flood"); err != nil {
		t.Fatalf("WaitHost: %v", err)
	}
	if limiter.Allow("www.reddit.com") {
		t.Error("host bucket should be drained by WaitHost")
	}
	if err := limiter.WaitHost(ctx, "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestLimiter_SetRateAndForget(t *testing.T) {
	limiter := NewLimiter(100, 5)
	limiter.SetRate("news.google.com", 0.1, 1)

	if !limiter.Allow("news.google.com") {
		t.Error("first request should pass")
	}
	if limiter.Allow("news.google.com") {
		t.Error("second request should be held back")
	}

	limiter.Forget("news.google.com")
	if limiter.Len() != 0 {
		t.Errorf("expected no buckets after Forget, got %d", limiter.Len())
	}
	if !limiter.Allow("news.google.com") {
		t.Error("a forgotten key starts with a fresh default bucket")
	}
}

func TestHostKey(t *testing.T) {
	host, err := HostKey("http://example.com/foo")
	if err != nil {
		t.Fatalf("HostKey: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}
}
