package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterStaleAfter    = 10 * time.Minute
)

// visitorLimiters tracks one token bucket per client IP and evicts
// buckets that have gone idle.
type visitorLimiters struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int

	buckets  map[string]*rate.Limiter
	lastSeen map[string]time.Time
}

func newVisitorLimiters(rps, burst int) *visitorLimiters {
	return &visitorLimiters{
		rps:      rate.Limit(rps),
		burst:    burst,
		buckets:  make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
	}
}

// allow reports whether the client may proceed, creating its bucket on
// first sight.
func (v *visitorLimiters) allow(ip string) bool {
	v.mu.Lock()
	bucket, ok := v.buckets[ip]
	if !ok {
		bucket = rate.NewLimiter(v.rps, v.burst)
		v.buckets[ip] = bucket
	}
	v.lastSeen[ip] = time.Now()
	v.mu.Unlock()

	return bucket.Allow()
}

// sweep drops buckets idle longer than limiterStaleAfter.
func (v *visitorLimiters) sweep() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, seen := range v.lastSeen {
		if time.Since(seen) > limiterStaleAfter {
			delete(v.buckets, ip)
			delete(v.lastSeen, ip)
		}
	}
}

// RateLimiter returns a Gin middleware that enforces per-IP token-bucket
// rate limiting. rps is the steady-state requests per second; burst is
// the maximum burst size.
func RateLimiter(rps, burst int) gin.HandlerFunc {
	visitors := newVisitorLimiters(rps, burst)

	go func() {
		for {
			time.Sleep(limiterSweepInterval)
			visitors.sweep()
		}
	}()

	return func(c *gin.Context) {
		if !visitors.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
