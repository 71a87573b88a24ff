package concurrency

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	if _, err := NewLimiter(0); err == nil {
		t.Fatal("NewLimiter(0) should fail")
	}

	lim, err := NewLimiter(2)
	if err != nil {
		t.Fatalf("NewLimiter() error = %v", err)
	}

	ctx := context.Background()
	if err := lim.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !lim.TryAcquire() {
		t.Fatal("TryAcquire() should succeed with a free slot")
	}
	if lim.TryAcquire() {
		t.Fatal("TryAcquire() should fail when full")
	}
	if got := lim.Available(); got != 0 {
		t.Errorf("Available() = %d, want 0", got)
	}

	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := lim.Acquire(timeout); err == nil {
		t.Error("Acquire() should fail when full and ctx expires")
	}

	for i := 0; i < 2; i++ {
		if err := lim.Release(); err != nil {
			t.Fatalf("Release() error = %v", err)
		}
	}
	if err := lim.Release(); err != ErrOverRelease {
		t.Errorf("Release() error = %v, want ErrOverRelease", err)
	}

	m := lim.GetMetrics()
	if m["total_executions"] != 2 || m["rejected_count"] != 1 || m["current"] != 0 {
		t.Errorf("GetMetrics() = %v", m)
	}
}
