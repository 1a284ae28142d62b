package httpx

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aussiebroadwan/activault/pkg/slogx"
)

// ThrottleConfig defines a token-bucket throttle for endpoints that sit
// outside the activation rate guard (health checks, docs). Monitoring
// systems poll these frequently, so the budgets are generous.
type ThrottleConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window
	RequestsPerWindow int
	// Window is the time window for throttling
	Window time.Duration
	// Burst allows for temporary bursts above the rate
	Burst int
}

// SystemThrottle is the default profile for health and docs endpoints.
var SystemThrottle = ThrottleConfig{
	RequestsPerWindow: 100,
	Window:            time.Minute,
	Burst:             100,
}

// throttler manages per-key token buckets.
type throttler struct {
	limiters sync.Map // map[string]*rate.Limiter
	rate     rate.Limit
	burst    int

	mu          sync.Mutex
	lastCleanup time.Time
}

func (t *throttler) getLimiter(key string) *rate.Limiter {
	if limiter, ok := t.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(t.rate, t.burst)
	actual, _ := t.limiters.LoadOrStore(key, limiter)

	t.maybeCleanup()

	return actual.(*rate.Limiter)
}

// maybeCleanup removes buckets that have refilled completely, i.e. keys
// that have been idle long enough to be forgotten.
func (t *throttler) maybeCleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if time.Since(t.lastCleanup) < 5*time.Minute {
		return
	}
	t.lastCleanup = time.Now()

	t.limiters.Range(func(key, value any) bool {
		limiter := value.(*rate.Limiter)
		if limiter.Tokens() >= float64(t.burst) {
			t.limiters.Delete(key)
		}
		return true
	})
}

// ThrottleByIP creates a token-bucket throttle middleware keyed by caller IP.
func ThrottleByIP(config ThrottleConfig) Middleware {
	ratePerSecond := float64(config.RequestsPerWindow) / config.Window.Seconds()

	t := &throttler{
		rate:        rate.Limit(ratePerSecond),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := slogx.FromContext(r.Context())

			key := IPKeyExtractor(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := t.getLimiter(key)
			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel() // Don't actually consume the reservation

				retryAfter := max(int(delay.Seconds()), 1)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))

				log.Warn("throttle exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"retry_after", retryAfter,
				)

				WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Error:             "rate_limited",
					ErrorDescription:  "Too many requests. Please try again later.",
					RetryAfterSeconds: retryAfter,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
