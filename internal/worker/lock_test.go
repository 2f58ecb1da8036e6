package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	unlock, err := l.TryLock(ctx, "r1", time.Minute)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if _, err := l.TryLock(ctx, "r1", time.Minute); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := l.TryLock(ctx, "r2", time.Minute); err != nil {
		t.Errorf("other report should lock: %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := l.TryLock(ctx, "r1", time.Minute); err != nil {
		t.Errorf("lock after unlock: %v", err)
	}
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLocker()
	l.now = func() time.Time { return now }

	staleUnlock, err := l.TryLock(ctx, "r1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := l.TryLock(ctx, "r1", time.Minute); err != nil {
		t.Fatalf("expired lock should be reclaimed: %v", err)
	}

	// The stale holder must not release the new holder's lock.
	_ = staleUnlock(ctx)
	if _, err := l.TryLock(ctx, "r1", time.Minute); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked after stale unlock, got %v", err)
	}
}

func TestLock_WaitsForRelease(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	unlock, err := l.TryLock(ctx, "r1", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = unlock(ctx)
	}()

	got, err := Lock(ctx, l, "r1", time.Minute, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	_ = got(ctx)
}

func TestLock_ContextExpires(t *testing.T) {
	l := NewMemoryLocker()
	if _, err := l.TryLock(context.Background(), "r1", time.Minute); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := Lock(ctx, l, "r1", time.Minute, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRedisLocker(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	l, err := NewRedisLocker(ctx, "redis://"+s.Addr())
	if err != nil {
		t.Fatalf("NewRedisLocker: %v", err)
	}
	defer func() { _ = l.Close() }()

	if err := l.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	unlock, err := l.TryLock(ctx, "r1", time.Minute)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}
	if !s.Exists("coastwatch:lock:r1") {
		t.Fatal("expected lock key in redis")
	}
	if _, err := l.TryLock(ctx, "r1", time.Minute); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := unlock(ctx); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if s.Exists("coastwatch:lock:r1") {
		t.Error("expected lock key removed")
	}

	// Expiry hands the lock to the next writer; the old token no longer releases it.
	stale, err := l.TryLock(ctx, "r2", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	s.FastForward(2 * time.Second)
	if _, err := l.TryLock(ctx, "r2", time.Minute); err != nil {
		t.Fatalf("lock after expiry: %v", err)
	}
	if err := stale(ctx); err != nil {
		t.Fatalf("stale unlock: %v", err)
	}
	if !s.Exists("coastwatch:lock:r2") {
		t.Error("stale unlock removed the new holder's key")
	}
}

func TestNewRedisLocker_BadURL(t *testing.T) {
	if _, err := NewRedisLocker(context.Background(), "not-a-url"); err == nil {
		t.Error("expected parse error")
	}
}
