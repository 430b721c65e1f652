package middleware

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/kestrelhttp/kestrel/reqctx"
)

// KeyFunc extracts the rate-limit bucket key for a request; the default is
// the connection's remote address.
type KeyFunc func(ctx *reqctx.Context) string

// ByRemoteAddr is the default KeyFunc: one bucket per peer address.
func ByRemoteAddr(ctx *reqctx.Context) string {
	return ctx.RemoteAddr()
}

// RateLimiter holds one token-bucket limiter per key, created lazily on
// first use and never evicted; long-lived deployments with high key
// cardinality should bound cardinality in their KeyFunc (e.g. by IP prefix).
//
// Grounded on rivaas-dev-rivaas's ratelimit middleware (token bucket per
// client key, configurable rate and burst, pluggable KeyFunc), implemented
// against golang.org/x/time/rate instead of a hand-rolled bucket since that
// is the ecosystem's standard token-bucket limiter.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
	keyFn    KeyFunc
}

// NewRateLimiter builds a RateLimiter allowing requestsPerSecond sustained
// throughput per key with burst headroom, keyed by keyFn (ByRemoteAddr if
// nil).
func NewRateLimiter(requestsPerSecond float64, burst int, keyFn KeyFunc) *RateLimiter {
	if keyFn == nil {
		keyFn = ByRemoteAddr
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(requestsPerSecond),
		burst:    burst,
		keyFn:    keyFn,
	}
}

func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[key] = lim
	}
	return lim
}

// Middleware returns a RequestMiddleware that aborts with 429 Too Many
// Requests and sets Retry-After once the caller's bucket is exhausted.
func (rl *RateLimiter) Middleware() func(ctx *reqctx.Context) {
	return func(ctx *reqctx.Context) {
		key := rl.keyFn(ctx)
		if rl.limiterFor(key).Allow() {
			return
		}
		resp := ctx.Response()
		resp.StatusCode = 429
		resp.Headers.Set("Retry-After", "1")
		resp.Headers.Set("Content-Type", "text/plain; charset=utf-8")
		resp.Body = []byte("429 Too Many Requests")
		ctx.Abort()
	}
}
