package youtube

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AcquireUnderMaxIsImmediate(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := rl.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("five acquires under max took %s", elapsed)
	}
	if rl.InWindow() != 5 {
		t.Errorf("InWindow = %d, want 5", rl.InWindow())
	}
}

func TestRateLimiter_AcquireBlocksAtMax(t *testing.T) {
	rl := NewRateLimiter(2, 200*time.Millisecond)
	ctx := context.Background()

	rl.Acquire(ctx)
	rl.Acquire(ctx)

	// Third acquire must wait for the first timestamp to leave the window.
	start := time.Now()
	if err := rl.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("third acquire returned after %s, want a window-length wait", elapsed)
	}
}

func TestRateLimiter_CancelledWaiterLeavesNoTrace(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Acquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := rl.Acquire(ctx); err == nil {
		t.Fatal("acquire should fail when the context expires first")
	}
	if rl.InWindow() != 1 {
		t.Errorf("InWindow = %d after cancelled acquire, want 1", rl.InWindow())
	}
}

func TestRateLimiter_ConcurrentAcquiresNeverExceedMax(t *testing.T) {
	const max = 4
	rl := NewRateLimiter(max, 300*time.Millisecond)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < max*2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rl.Acquire(ctx); err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if n := rl.InWindow(); n > max {
				t.Errorf("window holds %d dispatches, max is %d", n, max)
			}
		}()
	}
	wg.Wait()
}

func TestRateLimiter_WaitIfNeededDoesNotClaim(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	if err := rl.WaitIfNeeded(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rl.InWindow() != 0 {
		t.Error("WaitIfNeeded must not record a dispatch")
	}

	rl.Record()
	if rl.InWindow() != 1 {
		t.Errorf("InWindow = %d after Record, want 1", rl.InWindow())
	}
}
