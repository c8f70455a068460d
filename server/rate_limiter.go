package main

import (
	"sync"
	"time"
)

type rateBucket struct {
	count int
	until time.Time
}

// RateLimiter counts requests per key in fixed windows. It protects the VPN
// open endpoints from runaway clients; expired buckets are pruned lazily so
// the map stays bounded by active keys.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rateBucket
	nextSweep time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{buckets: make(map[string]*rateBucket)}
}

// Allow reports whether the keyed caller may proceed under limit requests
// per window. A non-positive limit disables limiting for the call.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return true
	}

	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.After(rl.nextSweep) {
		for k, bucket := range rl.buckets {
			if now.After(bucket.until) {
				delete(rl.buckets, k)
			}
		}
		rl.nextSweep = now.Add(time.Minute)
	}

	bucket := rl.buckets[key]
	if bucket == nil || now.After(bucket.until) {
		bucket = &rateBucket{until: now.Add(window)}
		rl.buckets[key] = bucket
	}
	if bucket.count >= limit {
		return false
	}
	bucket.count++
	return true
}

type RateLimiterStats struct {
	Keys int `json:"keys"`
}

func (rl *RateLimiter) Stats() RateLimiterStats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return RateLimiterStats{Keys: len(rl.buckets)}
}
