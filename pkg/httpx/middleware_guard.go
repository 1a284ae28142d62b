package httpx

import (
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/activault/pkg/ratelimit"
	"github.com/aussiebroadwan/activault/pkg/slogx"
)

// GuardMiddleware applies a rate-limit policy before the handler touches
// persistence. The guard key is (client identity, operation): the policy
// name carries the operation, the extractor supplies the client.
//
// Limiter errors fail open: a broken limiter backend should degrade to
// unthrottled service, not an outage.
func GuardMiddleware(limiter ratelimit.RateLimiter, policy ratelimit.Policy, keyExtractor KeyExtractor) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			key := keyExtractor(r)
			if key == "" {
				log.Warn("rate guard: unable to extract client key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			decision, err := limiter.Allow(ctx, key, policy)
			if err != nil {
				log.Error("rate guard backend failed, allowing request", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			if decision.Anomalous {
				log.Warn("anomalous request pattern",
					"key", key,
					"operation", policy.Name,
					"endpoint", r.URL.Path,
				)
			}

			if !decision.Allowed {
				retryAfter := decision.RetryAfterSeconds()

				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", policy.MaxRequests))
				w.Header().Set("X-RateLimit-Window", policy.Window.String())

				log.Warn("rate limit exceeded",
					"key", key,
					"operation", policy.Name,
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
