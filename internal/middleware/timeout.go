package middleware

import (
	"context"
	"time"

	"github.com/jwalitptl/scheduling-service/internal/router"
)

// TimeoutConfig represents timeout middleware configuration
type TimeoutConfig struct {
	Duration time.Duration
}

// Timeout bounds the handler context so database calls are cancelled once
// the requester has given up. A non-positive duration disables it.
func Timeout(config TimeoutConfig) router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		if config.Duration <= 0 {
			return next
		}
		return func(ctx context.Context, req *router.Request) *router.Reply {
			ctx, cancel := context.WithTimeout(ctx, config.Duration)
			defer cancel()
			return next(ctx, req)
		}
	}
}
