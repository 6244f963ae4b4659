package store

import (
	"context"
	"sync"
	"time"
)

const minSweepKeys = 1024

// RateLimitMemoryStore is an in-memory implementation of ratelimit.Store for
// a single process. Idle clients are forgotten once the key count doubles.
type RateLimitMemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	sweepAt  int
	now      func() time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		requests: make(map[string][]time.Time),
		sweepAt:  minSweepKeys,
		now:      time.Now,
	}
}

// Record adds a hit for key and returns the hits still inside window.
func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	hits := prune(s.requests[key], cutoff)
	hits = append(hits, now)
	s.requests[key] = hits

	if len(s.requests) >= s.sweepAt {
		s.sweep(cutoff)
	}

	return int64(len(hits)), nil
}

// Keys reports how many clients are currently tracked.
func (s *RateLimitMemoryStore) Keys() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests)
}

func (s *RateLimitMemoryStore) sweep(cutoff time.Time) {
	for key, hits := range s.requests {
		if !hits[len(hits)-1].After(cutoff) {
			delete(s.requests, key)
		}
	}

	s.sweepAt = max(minSweepKeys, 2*len(s.requests))
}

// prune keeps the timestamps after cutoff, reusing the backing array.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]

	for _, ts := range hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	return kept
}
