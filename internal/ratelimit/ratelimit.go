package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobpipe/internal/model"
)

// HostLimiter enforces a minimum delay between requests to the same host.
// Sources that share a host (several Greenhouse boards, say) share a limiter.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter // key: host
	every    rate.Limit
}

// NewHostLimiter creates a limiter that allows one request per minDelay for
// each host. A zero minDelay disables limiting.
func NewHostLimiter(minDelay time.Duration) *HostLimiter {
	every := rate.Inf
	if minDelay > 0 {
		every = rate.Every(minDelay)
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
	}
}

func (h *HostLimiter) limiterFor(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	if lim, ok := h.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(h.every, 1)
	h.limiters[host] = lim
	return lim
}

// Wait blocks until the host may be contacted again.
// Returns an error if the context is cancelled while waiting.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	if err := h.limiterFor(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", host, err)
	}
	return nil
}

// HostOf returns the lower-cased host of a URL, or the raw string when it
// does not parse as one.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	return strings.ToLower(u.Hostname())
}

// urlSource is implemented by sources that fetch from a single endpoint.
type urlSource interface {
	URL() string
}

// RateLimitedSource is a decorator that waits on the host limiter before
// delegating to the wrapped RecordSource.
type RateLimitedSource struct {
	inner   model.RecordSource
	limiter *HostLimiter
	key     string
}

// NewRateLimitedSource wraps a RecordSource with host-level rate limiting.
// The key is the host of the source's URL; sources without one are limited
// by name.
func NewRateLimitedSource(inner model.RecordSource, limiter *HostLimiter) *RateLimitedSource {
	key := "source:" + inner.Name()
	if us, ok := inner.(urlSource); ok && us.URL() != "" {
		key = HostOf(us.URL())
	}
	return &RateLimitedSource{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

func (s *RateLimitedSource) Name() string { return s.inner.Name() }

// Key returns the limiter bucket this source waits on.
func (s *RateLimitedSource) Key() string { return s.key }

// Fetch waits for the rate limiter to allow a request, then delegates to
// the wrapped source.
func (s *RateLimitedSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if err := s.limiter.Wait(ctx, s.key); err != nil {
		return nil, err
	}
	return s.inner.Fetch(ctx)
}

var _ model.RecordSource = (*RateLimitedSource)(nil)
