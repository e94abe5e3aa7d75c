package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

const (
	maxTrackedClients = 10000
	clientIdleTTL     = 10 * time.Minute
)

// ClientRateLimiter keeps one token bucket per client key. Buckets of idle
// clients expire so memory stays bounded.
type ClientRateLimiter struct {
	limiters *expirable.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewClientRateLimiter allows perMinute requests per client with a burst of
// a tenth of that, at least one.
func NewClientRateLimiter(perMinute int) *ClientRateLimiter {
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &ClientRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxTrackedClients, nil, clientIdleTTL),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
	}
}

// Allow consumes one token for key.
func (l *ClientRateLimiter) Allow(key string) bool {
	lim, ok := l.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, lim)
	}
	return lim.Allow()
}

// retryAfter is the wait until one token is available again.
func (l *ClientRateLimiter) retryAfter() int {
	if l.limit <= 0 {
		return 60
	}
	secs := int(1/float64(l.limit) + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// clientKey is the remote IP. chi's RealIP middleware has already applied
// X-Forwarded-For / X-Real-IP to RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit rejects clients over budget with 429 and a Retry-After header.
func RateLimit(l *ClientRateLimiter, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] || l.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfter()))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"` + string(errors.ErrCodeTooManyRequests) + `","message":"rate limit exceeded, please retry later"}`))
		})
	}
}
