package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"donation-platform/internal/utils"
)

// RateLimiter allows at most maxAttempts requests per key in a sliding window
type RateLimiter struct {
	attempts    map[string][]time.Time
	mutex       sync.Mutex
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	done        chan struct{}
	closeOnce   sync.Once
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		done:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow records an attempt for key and reports whether it is within the limit.
// Rejected attempts are not recorded.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	valid := rl.prune(rl.attempts[key], now)
	if len(valid) >= rl.maxAttempts {
		rl.attempts[key] = valid
		return false
	}
	rl.attempts[key] = append(valid, now)
	return true
}

// RetryAfter returns how long key must wait before its next attempt is allowed
func (rl *RateLimiter) RetryAfter(key string) time.Duration {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	valid := rl.prune(rl.attempts[key], now)
	if len(valid) < rl.maxAttempts {
		return 0
	}
	// The oldest attempt in the window frees the next slot
	return valid[len(valid)-rl.maxAttempts].Add(rl.window).Sub(now)
}

// Close stops the cleanup loop
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) prune(attempts []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	var valid []time.Time
	for _, attempt := range attempts {
		if attempt.After(cutoff) {
			valid = append(valid, attempt)
		}
	}
	return valid
}

// cleanup removes old entries periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mutex.Lock()
			now := rl.now()
			for key, attempts := range rl.attempts {
				if valid := rl.prune(attempts, now); len(valid) == 0 {
					delete(rl.attempts, key)
				} else {
					rl.attempts[key] = valid
				}
			}
			rl.mutex.Unlock()
		}
	}
}

// RateLimit limits requests per client IP, answering 429 with Retry-After
func RateLimit(limiter *RateLimiter, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r)
			if !limiter.Allow(ip) {
				wait := limiter.RetryAfter(ip)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
