package mw

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/citelens/citelens-api/internal/constants"
	"github.com/citelens/citelens-api/internal/models"
	"github.com/citelens/citelens-api/internal/ratelimit"
)

// RateLimitByIP returns a middleware that rate limits by IP address.
// Global fallback for all traffic, authenticated or not.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// AccountRateLimit returns a middleware that applies both per-account
// gates (minute window and monthly ceiling) for the account's tier.
// Should be applied AFTER authentication middleware, and only to the
// endpoints that consume audit quota.
func AccountRateLimit(gate *ratelimit.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetAccountClaims(r.Context())
			if claims == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			decision, err := gate.Check(r.Context(), claims.AccountID, claims.Tier)
			if err != nil {
				var rle *models.RateLimitError
				if errors.As(err, &rle) {
					writeRateLimitError(w, claims.Tier, rle)
					return
				}
				http.Error(w, `{"error":"rate limit check failed"}`, http.StatusInternalServerError)
				return
			}

			// Remaining -1 means a bypass or unlimited tier: no headers.
			if decision.Remaining >= 0 {
				limits := constants.GetTierLimits(claims.Tier)
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limits.MonthlyAudits))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeRateLimitError writes a 429 with Retry-After and scope detail.
func writeRateLimitError(w http.ResponseWriter, tier string, rle *models.RateLimitError) {
	limits := constants.GetTierLimits(tier)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Remaining", "0")
	if rle.Scope == "monthly" {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limits.MonthlyAudits))
	} else {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limits.RequestsPerMinute))
	}
	if rle.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rle.RetryAfter.Seconds())+1))
	}

	w.WriteHeader(http.StatusTooManyRequests)
	fmt.Fprintf(w, `{"error":%q,"scope":%q}`, rle.Error(), rle.Scope)
}
