package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed bool
	// Limit is the number of requests allowed per Window.
	Limit int64
	// Remaining is how many more requests fit in the current window.
	Remaining int64
	Window    time.Duration
}

// Limiter decides whether a client may make another request.
type Limiter interface {
	// Allow records a request from key and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (Decision, error)
}

// SlidingWindowLimiter implements rate limiting using a sliding window algorithm.
// Rejected requests still count towards the window.
type SlidingWindowLimiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per window.
func NewSlidingWindowLimiter(store Store, limit int64, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, err := l.store.Record(ctx, key, l.window)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(l.limit-count, 0),
		Window:    l.window,
	}, nil
}
