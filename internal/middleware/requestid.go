package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/router"
)

const ContextRequestID = "request_id"

type requestIDKey struct{}

// RequestID tags each message with a fresh id and attaches a child logger
// carrying the id and topic, so handlers can log through zerolog.Ctx.
func RequestID(base zerolog.Logger) router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) *router.Reply {
			rid := uuid.New().String()

			log := base.With().
				Str(ContextRequestID, rid).
				Str("topic", req.Topic).
				Logger()

			ctx = context.WithValue(ctx, requestIDKey{}, rid)
			ctx = log.WithContext(ctx)
			return next(ctx, req)
		}
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	rid, _ := ctx.Value(requestIDKey{}).(string)
	return rid
}
