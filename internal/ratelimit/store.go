package ratelimit

import (
	"context"
	"time"
)

// Store keeps per-key request timestamps. Implementations live in the store
// package: an in-memory one for a single instance and a Redis one shared by all.
type Store interface {
	// Record records a request and returns the count of requests in the current window,
	// including this one. Entries older than window are pruned.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
