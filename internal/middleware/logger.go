package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/router"
)

// Logger logs every dispatched message once it has been answered.
func Logger() router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) *router.Reply {
			start := time.Now()
			reply := next(ctx, req)
			latency := time.Since(start)

			status := 0
			if reply != nil {
				status = reply.Status
			}

			log := zerolog.Ctx(ctx)
			var event *zerolog.Event
			var msg string
			switch {
			case status >= 500 || status == 0:
				event, msg = log.Error(), "Server error"
			case status >= 400:
				event, msg = log.Warn(), "Client error"
			default:
				event, msg = log.Info(), "Request processed"
			}

			event.
				Str("topic", req.Topic).
				Int("status", status).
				Int("payload_bytes", len(req.Payload)).
				Dur("latency", latency).
				Msg(msg)
			return reply
		}
	}
}
