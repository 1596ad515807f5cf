package keeper

import (
	"context"
	"time"
)

const DefaultPollInterval = 5 * time.Minute

// Scheduler decides when the next tick starts. Wait is called after a tick has
// completed, so ticks of one bot never overlap.
type Scheduler interface {
	Wait(ctx context.Context) error
}

type IntervalScheduler struct {
	Interval time.Duration
}

func (s IntervalScheduler) Wait(ctx context.Context) error {
	d := s.Interval
	if d <= 0 {
		d = DefaultPollInterval
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ManualScheduler releases a waiting loop only when Fire is called.
type ManualScheduler struct {
	fire chan struct{}
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{fire: make(chan struct{})}
}

func (s *ManualScheduler) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.fire:
		return nil
	}
}

// Fire blocks until a loop is waiting for its next tick.
func (s *ManualScheduler) Fire(ctx context.Context) error {
	select {
	case s.fire <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
