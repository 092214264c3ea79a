package service

import (
	"context"
	"sync"
	"time"

	"rentalbot/internal/utils"
)

// RateGate spaces outbound model calls by a minimum interval.
// It is a throttle: the last-request mark is taken after the wait, so bursts never happen.
type RateGate struct {
	mu          sync.Mutex
	interval    time.Duration
	lastRequest time.Time
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewRateGate creates a gate allowing one call per interval
func NewRateGate(interval time.Duration) *RateGate {
	return &RateGate{
		interval: interval,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// NewRateGatePerMinute creates a gate allowing maxPerMinute calls per minute
func NewRateGatePerMinute(maxPerMinute int) *RateGate {
	if maxPerMinute <= 0 {
		maxPerMinute = 60
	}
	return NewRateGate(time.Minute / time.Duration(maxPerMinute))
}

// Wait blocks until the minimum interval since the previous call has elapsed
func (g *RateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastRequest.IsZero() {
		elapsed := g.now().Sub(g.lastRequest)
		if elapsed < g.interval {
			wait := g.interval - elapsed
			utils.Debugf("[DEBUG] ⏳ Rate limit: sleeping %v", wait)
			if err := g.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	g.lastRequest = g.now()
	return nil
}

// Interval returns the configured minimum spacing
func (g *RateGate) Interval() time.Duration {
	return g.interval
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
