package checker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer is the single shared gate that spaces outgoing requests. It caps the
// aggregate dispatch rate across all workers: each Acquire reserves the next
// free slot under the mutex and then sleeps until that slot arrives, so a
// burst of fast failures on one worker cannot erode the spacing.
type Pacer struct {
	delay  time.Duration
	bucket *rate.Limiter

	mu   sync.Mutex
	next time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer enforcing the minimum inter-dispatch delay and an
// optional token-bucket cap of perWindow requests per window.
func NewPacer(delay time.Duration, perWindow int, window time.Duration) *Pacer {
	p := &Pacer{
		delay: delay,
		now:   time.Now,
		sleep: sleepContext,
	}
	if perWindow > 0 && window > 0 {
		interval := window / time.Duration(perWindow)
		if interval <= 0 {
			interval = time.Millisecond
		}
		p.bucket = rate.NewLimiter(rate.Every(interval), perWindow)
	}
	return p
}

// Acquire blocks until the caller may dispatch, then records the dispatch
// slot. Returns the context error if cancelled while waiting.
func (p *Pacer) Acquire(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.delay > 0 {
		p.mu.Lock()
		now := p.now()
		at := p.next
		if at.Before(now) {
			at = now
		}
		p.next = at.Add(p.delay)
		p.mu.Unlock()

		if wait := at.Sub(now); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	if p.bucket != nil {
		return p.bucket.Wait(ctx)
	}
	return ctx.Err()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
