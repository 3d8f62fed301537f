package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
	"github.com/jwalitptl/scheduling-service/pkg/metrics"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter throttles dispatch across all topics with one token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	metrics *metrics.Metrics
}

// NewRateLimiter returns nil when config.Rate is not positive, which
// RateLimit treats as disabled.
func NewRateLimiter(config RateLimiterConfig, m *metrics.Metrics) *RateLimiter {
	if config.Rate <= 0 {
		return nil
	}
	if config.Burst < 1 {
		config.Burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(config.Rate, config.Burst),
		metrics: m,
	}
}

func (rl *RateLimiter) RateLimit() router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		if rl == nil {
			return next
		}
		return func(ctx context.Context, req *router.Request) *router.Reply {
			if !rl.limiter.Allow() {
				if rl.metrics != nil {
					rl.metrics.RequestsDropped.WithLabelValues(req.Topic).Inc()
				}
				return handler.Encode(handler.NewErrorResponse(apperrors.RateLimited()))
			}
			return next(ctx, req)
		}
	}
}
