package embedding

import (
	"context"
	"sync"
	"time"
)

// RateLimitConfig configures request rate limiting for embedding providers.
type RateLimitConfig struct {
	// RequestsPerMinute limits the number of API calls per minute (0 = unlimited)
	RequestsPerMinute int
	// BurstSize allows temporary burst above the rate limit
	BurstSize int
}

// DefaultRateLimitConfig returns conservative defaults for hosted APIs.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute: 60,
		BurstSize:         5,
	}
}

// RateLimitProvider wraps a provider with a token-bucket request limiter.
// The bucket state is shared across goroutines; concurrent chunk processing
// contends on a single mutex.
type RateLimitProvider struct {
	inner  Provider
	config *RateLimitConfig

	mu            sync.Mutex
	requestTokens int
	lastRefill    time.Time
}

// NewRateLimitProvider creates a rate-limited provider wrapper.
func NewRateLimitProvider(inner Provider, config *RateLimitConfig) *RateLimitProvider {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &RateLimitProvider{
		inner:         inner,
		config:        config,
		requestTokens: burst,
		lastRefill:    time.Now(),
	}
}

// Name returns the underlying provider name.
func (r *RateLimitProvider) Name() string { return r.inner.Name() }

// Embed waits for rate-limit clearance and delegates to the inner provider.
func (r *RateLimitProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.waitForCapacity(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, texts)
}

// waitForCapacity blocks until the bucket has a token.
func (r *RateLimitProvider) waitForCapacity(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.refillTokens()

		if r.config.RequestsPerMinute == 0 {
			r.mu.Unlock()
			return nil
		}

		if r.requestTokens > 0 {
			r.requestTokens--
			r.mu.Unlock()
			return nil
		}

		waitTime := r.tokenInterval()
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// refillTokens adds tokens based on elapsed time, capped at the burst size.
func (r *RateLimitProvider) refillTokens() {
	if r.config.RequestsPerMinute <= 0 {
		return
	}

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)

	tokensToAdd := int(elapsed.Minutes() * float64(r.config.RequestsPerMinute))
	if tokensToAdd > 0 {
		r.requestTokens += tokensToAdd
		maxTokens := r.config.BurstSize
		if maxTokens <= 0 {
			maxTokens = 1
		}
		if r.requestTokens > maxTokens {
			r.requestTokens = maxTokens
		}
		r.lastRefill = now
	}
}

// tokenInterval is the time until one token becomes available.
func (r *RateLimitProvider) tokenInterval() time.Duration {
	perSecond := float64(r.config.RequestsPerMinute) / 60.0
	if perSecond <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / perSecond)
}

// WithRateLimit wraps a provider with rate limiting.
func WithRateLimit(p Provider, config *RateLimitConfig) Provider {
	if p == nil {
		return nil
	}
	return NewRateLimitProvider(p, config)
}
