package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"greywaterbot/internal/domain"
)

// RateLimiter is a token bucket for throttling LLM API calls.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	max      float64
	rate     float64 // tokens per second
	lastTime time.Time
}

func NewRateLimiter(maxBurst int, ratePerMinute float64) *RateLimiter {
	if maxBurst <= 0 {
		maxBurst = 10
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 60
	}
	return &RateLimiter{
		tokens:   float64(maxBurst),
		max:      float64(maxBurst),
		rate:     ratePerMinute / 60.0,
		lastTime: time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		rl.tokens += now.Sub(rl.lastTime).Seconds() * rl.rate
		if rl.tokens > rl.max {
			rl.tokens = rl.max
		}
		rl.lastTime = now

		if rl.tokens >= 1.0 {
			rl.tokens -= 1.0
			rl.mu.Unlock()
			return nil
		}

		wait := time.Duration((1.0 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Throttled wraps a provider so every Chat call first takes a token.
type Throttled struct {
	domain.Provider
	limiter *RateLimiter
}

func NewThrottled(p domain.Provider, limiter *RateLimiter) *Throttled {
	return &Throttled{Provider: p, limiter: limiter}
}

func (t *Throttled) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: rate limit: %w", t.Name(), err)
	}
	return t.Provider.Chat(ctx, req)
}
