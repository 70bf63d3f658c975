package apikit

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	Rate  float64 // tokens added per second
	Burst int     // bucket size

	// KeyFunc buckets requests. Defaults to the client address without port.
	KeyFunc func(r *http.Request) string
	// OnLimit answers a limited request. Defaults to a 429 problem.
	OnLimit func(w http.ResponseWriter, r *http.Request)

	// Buckets idle for MaxIdle are dropped, checked at most once per
	// CleanupInterval. Defaults are 5m and 1m.
	CleanupInterval time.Duration
	MaxIdle         time.Duration
}

// RateLimit returns middleware that applies a token bucket per key. Limited
// requests carry a Retry-After header with the seconds until the next token.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientAddr
	}
	if cfg.OnLimit == nil {
		cfg.OnLimit = func(w http.ResponseWriter, _ *http.Request) {
			writeErrorResponse(w, Error(http.StatusTooManyRequests, "rate limit exceeded"))
		}
	}

	pool := &bucketPool{
		limit:   rate.Limit(cfg.Rate),
		burst:   cfg.Burst,
		every:   orDefault(cfg.CleanupInterval, time.Minute),
		maxIdle: orDefault(cfg.MaxIdle, 5*time.Minute),
		buckets: make(map[string]*bucket),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wait, ok := pool.take(cfg.KeyFunc(r), time.Now()); !ok {
				w.Header().Set("Retry-After", retryAfter(wait))
				cfg.OnLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type bucketPool struct {
	limit   rate.Limit
	burst   int
	every   time.Duration
	maxIdle time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	pruned  time.Time
}

// take consumes a token from key's bucket. When none is available it
// returns the wait until one is.
func (p *bucketPool) take(key string, now time.Time) (time.Duration, bool) {
	p.mu.Lock()
	if now.Sub(p.pruned) >= p.every {
		for k, b := range p.buckets {
			if now.Sub(b.lastSeen) > p.maxIdle {
				delete(p.buckets, k)
			}
		}
		p.pruned = now
	}
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = now
	p.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Second, false
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return wait, false
	}
	return 0, true
}

// retryAfter renders wait as whole seconds, rounded up, at least one.
func retryAfter(wait time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(wait.Seconds()))))
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// clientAddr is the request's remote address without the port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
