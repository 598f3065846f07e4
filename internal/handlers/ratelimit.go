package handlers

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/capoo-pm/apiserver/config"
	"github.com/capoo-pm/apiserver/internal/logging"
	"golang.org/x/time/rate"
)

const limiterIdleSweep = 5 * time.Minute

// clientIP returns the host part of RemoteAddr. chi's RealIP middleware has
// already applied X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type ipLimiter struct {
	limiters  sync.Map // map[string]*rate.Limiter
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	lastSweep time.Time
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.limit, l.burst))
	l.maybeSweep()
	return actual.(*rate.Limiter)
}

// maybeSweep drops limiters whose bucket has refilled, i.e. idle clients.
func (l *ipLimiter) maybeSweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Since(l.lastSweep) < limiterIdleSweep {
		return
	}
	l.lastSweep = time.Now()

	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitByIP limits requests per client IP with a token bucket. A
// non-positive request count disables limiting.
func RateLimitByIP(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.AuthRequests <= 0 || cfg.AuthWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	burst := cfg.AuthBurst
	if burst <= 0 {
		burst = cfg.AuthRequests
	}
	limiter := &ipLimiter{
		limit:     rate.Limit(float64(cfg.AuthRequests) / cfg.AuthWindow.Seconds()),
		burst:     burst,
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			bucket := limiter.get(key)
			if bucket.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			reservation := bucket.Reserve()
			retryAfter := max(int(reservation.Delay().Seconds()), 1)
			reservation.Cancel()

			logging.FromContext(r.Context()).WarnContext(r.Context(), "rate limit exceeded",
				slog.String("key", key),
				slog.Int("retry_after", retryAfter),
			)

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.AuthRequests))
			w.Header().Set("X-RateLimit-Window", cfg.AuthWindow.String())
			writeError(w, r, http.StatusTooManyRequests, errorTypeRateLimited, keyRateLimited, nil)
		})
	}
}
