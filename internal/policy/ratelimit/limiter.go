// Package ratelimit caps the request rate per host with token buckets.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/JakeFAU/roster-crawler/internal/metrics"
	"github.com/JakeFAU/roster-crawler/internal/roster"
)

// Config holds rate limiter configuration. A non-positive PerMinute disables limiting.
type Config struct {
	PerMinute float64
	Burst     int
}

// Limiter manages per-host rate limits.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	limit := rate.Limit(cfg.PerMinute / 60)
	if cfg.PerMinute <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// Wait blocks until a token is available for the host of rawURL.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	l.mu.Lock()
	limiter, exists := l.limiters[host]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitWait(host, waited)
	}
	return nil
}

// Fetcher applies a Limiter in front of another roster.Fetcher.
type Fetcher struct {
	next    roster.Fetcher
	limiter *Limiter
}

// Wrap returns next behind limiter.
func Wrap(next roster.Fetcher, limiter *Limiter) *Fetcher {
	return &Fetcher{next: next, limiter: limiter}
}

// Fetch waits for a token and then delegates.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (roster.Page, error) {
	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return roster.Page{}, err
	}
	page, err := f.next.Fetch(ctx, rawURL)
	if err != nil {
		return roster.Page{}, fmt.Errorf("rate limited fetch: %w", err)
	}
	return page, nil
}
