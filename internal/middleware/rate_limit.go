package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/baharkarakas/checkin-backend/internal/api/httpx"
)

const bucketIdle = 10 * time.Minute

type tokenBucket struct {
	tokens float64
	last   time.Time
}

// buckets holds one token bucket per client IP.
type buckets struct {
	mu    sync.Mutex
	rate  float64
	burst float64
	items map[string]*tokenBucket
	sweep time.Time
}

func (b *buckets) take(key string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.sweep) > bucketIdle {
		for k, tb := range b.items {
			if now.Sub(tb.last) > bucketIdle {
				delete(b.items, k)
			}
		}
		b.sweep = now
	}
	tb, ok := b.items[key]
	if !ok {
		tb = &tokenBucket{tokens: b.burst, last: now}
		b.items[key] = tb
	}
	tb.tokens = min(b.burst, tb.tokens+now.Sub(tb.last).Seconds()*b.rate)
	tb.last = now
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// RateLimit caps each client IP at rps requests per second with a burst of rps.
func RateLimit(rps int) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	b := &buckets{
		rate:  float64(rps),
		burst: float64(rps),
		items: map[string]*tokenBucket{},
		sweep: time.Now(),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !b.take(ClientIP(r), time.Now()) {
				w.Header().Set("Retry-After", strconv.Itoa(1))
				httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
