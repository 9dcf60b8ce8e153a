package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// idleBucketTTL is how long an untouched client bucket survives cleanup.
const idleBucketTTL = 10 * time.Minute

// RateLimiter throttles the public token routes per client address with a
// token bucket. Those routes are the only ones reachable without an actor.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// NewRateLimiter returns a limiter that drops idle buckets every
// cleanupInterval. Call Stop on shutdown.
func NewRateLimiter(cleanupInterval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(cleanupInterval)
	return rl
}

// Stop terminates the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// Limit returns middleware admitting maxPerMinute requests per client IP,
// refilled continuously. Rejected requests get 429 with Retry-After.
func (rl *RateLimiter) Limit(maxPerMinute int) Middleware {
	capacity := float64(maxPerMinute)
	perSecond := capacity / 60

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wait, ok := rl.take(ClientIP(r), capacity, perSecond)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// take consumes one token from key's bucket. When the bucket is empty it
// reports how long until the next token is available.
func (rl *RateLimiter) take(key string, capacity, perSecond float64) (time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: capacity, updated: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(capacity, b.tokens+now.Sub(b.updated).Seconds()*perSecond)
	b.updated = now

	if b.tokens >= 1 {
		b.tokens--
		return 0, true
	}
	if perSecond <= 0 {
		return time.Minute, false
	}
	deficit := (1 - b.tokens) / perSecond
	return time.Duration(deficit * float64(time.Second)), false
}

func (rl *RateLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.evictIdle(rl.now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.updated) > idleBucketTTL {
			delete(rl.buckets, key)
		}
	}
}

// ClientIP returns the host part of r.RemoteAddr. Behind a trusted proxy
// the router rewrites RemoteAddr from X-Real-IP or X-Forwarded-For first.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
