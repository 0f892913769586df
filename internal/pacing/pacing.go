// Package pacing implements the delay policy applied between consecutive fetches.
package pacing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Default delay bounds between fetches.
const (
	DefaultMin = 1500 * time.Millisecond
	DefaultMax = 4 * time.Second
)

// Jitter sleeps for a uniformly random duration in [Min, Max] after each fetch.
type Jitter struct {
	min   time.Duration
	max   time.Duration
	rand  func(n int64) int64
	sleep func(ctx context.Context, d time.Duration) error
}

// NewJitter builds a Jitter pacer. Max below min is clamped to min.
func NewJitter(minDelay, maxDelay time.Duration) (*Jitter, error) {
	if minDelay < 0 {
		return nil, fmt.Errorf("pacing min delay must be >= 0, got %s", minDelay)
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Jitter{
		min:   minDelay,
		max:   maxDelay,
		rand:  rand.Int64N,
		sleep: sleepWithContext,
	}, nil
}

// Next returns the next delay without sleeping.
func (j *Jitter) Next() time.Duration {
	span := int64(j.max - j.min)
	if span <= 0 {
		return j.min
	}
	return j.min + time.Duration(j.rand(span+1))
}

// Pause blocks for the next delay or until ctx is done.
func (j *Jitter) Pause(ctx context.Context) (time.Duration, error) {
	delay := j.Next()
	if err := j.sleep(ctx, delay); err != nil {
		return delay, err
	}
	return delay, nil
}

// None never waits. It is meant for tests and dry runs against local fixtures.
type None struct{}

// Pause returns immediately unless ctx is already done.
func (None) Pause(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("pacing pause: %w", err)
	}
	return 0, nil
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing pause: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
