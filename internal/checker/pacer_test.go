package checker

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"
)

func TestPacerSpacesSequentialAcquires(t *testing.T) {
	t.Parallel()

	const delay = 100 * time.Millisecond
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var waits []time.Duration
	p := NewPacer(delay, 0, 0)
	p.now = func() time.Time { return base }
	p.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := p.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}

	// The clock never advances, so the first acquire is free and each
	// later one waits for its reserved slot.
	want := []time.Duration{delay, 2 * delay}
	if len(waits) != len(want) {
		t.Fatalf("expected waits %v, got %v", want, waits)
	}
	for i := range want {
		if waits[i] != want[i] {
			t.Fatalf("wait %d: expected %v, got %v", i, want[i], waits[i])
		}
	}
}

func TestPacerAggregateRateBoundAcrossWorkers(t *testing.T) {
	t.Parallel()

	const (
		delay   = 50 * time.Millisecond
		workers = 8
	)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var waits []time.Duration

	p := NewPacer(delay, 0, 0)
	p.now = func() time.Time { return base }
	p.sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Acquire(context.Background()); err != nil {
				t.Errorf("acquire: %v", err)
			}
		}()
	}
	wg.Wait()

	// Every worker must land in a distinct slot: one free dispatch plus
	// waits of delay, 2*delay, ... regardless of how many race at once.
	if len(waits) != workers-1 {
		t.Fatalf("expected %d waits, got %v", workers-1, waits)
	}
	sort.Slice(waits, func(i, j int) bool { return waits[i] < waits[j] })
	for i, w := range waits {
		if want := time.Duration(i+1) * delay; w != want {
			t.Fatalf("slot %d: expected wait %v, got %v", i, want, w)
		}
	}
}

func TestPacerAcquireReturnsContextError(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour, 0, 0)
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire should be immediate: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Acquire(ctx); err == nil {
		t.Fatal("expected context error while waiting for slot")
	}
}

func TestPacerNilIsNoOp(t *testing.T) {
	t.Parallel()

	var p *Pacer
	if err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("nil pacer must not block: %v", err)
	}
}
