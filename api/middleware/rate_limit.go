package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rifazone/rifazone-backend/api/responses"
	"github.com/rifazone/rifazone-backend/pkg/config"
	pkgerrors "github.com/rifazone/rifazone-backend/pkg/errors"
	"github.com/rifazone/rifazone-backend/pkg/logger"
)

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit applies a fixed-window limit keyed by client identity and route.
// Authenticated callers are keyed by subject id, anonymous ones by remote IP.
func RateLimit(limiter rateLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || cfg.PublicLimit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			scope := clientIdentity(r) + ":" + r.Method + ":" + r.URL.Path
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, int64(cfg.PublicLimit), cfg.PublicWindow)
			if err != nil {
				// Fail open when the counter store is unavailable.
				logg.Error(r.Context(), "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				ctx := logg.WithFields(r.Context(), map[string]any{
					"rate_limit_scope": scope,
					"rate_limit_count": count,
				})
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIdentity(r *http.Request) string {
	if subject := SubjectIDFromContext(r.Context()); subject != "" {
		return subject
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
