package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/jwalitptl/scheduling-service/internal/router"
	"github.com/jwalitptl/scheduling-service/pkg/metrics"
)

// Metrics counts replies by topic and envelope status and times handlers.
func Metrics(m *metrics.Metrics) router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) *router.Reply {
			start := time.Now()
			reply := next(ctx, req)

			status := "none"
			if reply != nil {
				status = strconv.Itoa(reply.Status)
			}
			m.RequestsTotal.WithLabelValues(req.Topic, status).Inc()
			m.RequestDuration.WithLabelValues(req.Topic).Observe(time.Since(start).Seconds())
			return reply
		}
	}
}
