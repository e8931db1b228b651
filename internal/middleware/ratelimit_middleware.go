package middleware

import (
	"sync"
	"time"
)

// InvalidAuthRateLimiter counts failed authentication attempts per IP within a fixed
// window. Successful requests are never counted.
type InvalidAuthRateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	attempts  map[string]*attemptInfo
	lastSweep time.Time
	now       func() time.Time
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter allows limit failed attempts per window. Non-positive values
// fall back to 5 attempts per minute.
func NewInvalidAuthRateLimiter(limit int, window time.Duration) *InvalidAuthRateLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &InvalidAuthRateLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string]*attemptInfo),
		now:      time.Now,
	}
}

// Allow records a failed attempt from ip and reports whether it is still within the limit.
func (r *InvalidAuthRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}
	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

// Blocked reports whether ip has exhausted its attempts without recording a new one.
func (r *InvalidAuthRateLimiter) Blocked(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.attempts[ip]
	if !exists || r.now().Sub(info.firstAt) > r.window {
		return false
	}
	return info.count >= r.limit
}

// Reset forgets the attempts recorded for ip.
func (r *InvalidAuthRateLimiter) Reset(ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, ip)
}

// sweep drops expired entries at most once per window. Caller holds mu.
func (r *InvalidAuthRateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSweep) < r.window {
		return
	}
	r.lastSweep = now
	for ip, info := range r.attempts {
		if now.Sub(info.firstAt) > r.window {
			delete(r.attempts, ip)
		}
	}
}
