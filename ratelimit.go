package phrasebook

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter is a token bucket guarding outbound provider requests.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	perSecond  float64
	lastRefill time.Time
}

// RateLimitConfig configures the rate limiter.
type RateLimitConfig struct {
	RequestsPerMinute int // Sustained request rate (default: 60)
	BurstSize         int // Bucket capacity (default: RequestsPerMinute)
}

// NewRateLimiter creates a rate limiter with a full bucket.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = rpm
	}

	return &RateLimiter{
		tokens:     float64(burst),
		capacity:   float64(burst),
		perSecond:  float64(rpm) / 60,
		lastRefill: time.Now(),
	}
}

// Wait blocks until a token is taken or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.reserve()
		if delay == 0 {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a token if one is available.
func (r *RateLimiter) TryAcquire() bool {
	return r.reserve() == 0
}

// Available returns the current number of tokens.
func (r *RateLimiter) Available() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refill(time.Now())
	return r.tokens
}

// reserve takes a token and returns 0, or returns how long until one is due.
func (r *RateLimiter) reserve() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refill(time.Now())
	if r.tokens >= 1 {
		r.tokens--
		return 0
	}

	missing := 1 - r.tokens
	delay := time.Duration(missing / r.perSecond * float64(time.Second))
	if delay <= 0 {
		delay = time.Millisecond
	}
	return delay
}

// refill must be called with mu held.
func (r *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.perSecond
	if r.tokens > r.capacity {
		r.tokens = r.capacity
	}
}

// RateLimitedProvider wraps a Provider with rate limiting.
type RateLimitedProvider struct {
	provider Provider
	limiter  *RateLimiter
}

// NewRateLimitedProvider creates a new rate-limited provider.
func NewRateLimitedProvider(provider Provider, cfg RateLimitConfig) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(cfg),
	}
}

// Translate implements Provider with rate limiting.
// A cancelled wait is reported as a TransportError: the request was never sent.
func (p *RateLimitedProvider) Translate(ctx context.Context, req TranslateRequest) ([]Candidate, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{
			Provider: providerName(p.provider),
			Cause:    fmt.Errorf("rate limit wait cancelled: %w", err),
		}
	}

	return p.provider.Translate(ctx, req)
}

// Name returns the wrapped provider's name.
func (p *RateLimitedProvider) Name() string {
	return providerName(p.provider)
}

// Limiter returns the underlying rate limiter for inspection.
func (p *RateLimitedProvider) Limiter() *RateLimiter {
	return p.limiter
}
