package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/handler"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

// Recovery turns a handler panic into a 500 envelope so one bad message
// cannot take the subscriber down.
func Recovery() router.Middleware {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx context.Context, req *router.Request) (reply *router.Reply) {
			defer func() {
				if r := recover(); r != nil {
					zerolog.Ctx(ctx).Error().
						Interface("error", r).
						Str("stack", string(debug.Stack())).
						Str("topic", req.Topic).
						Str(ContextRequestID, GetRequestID(ctx)).
						Msg("Request panic recovered")

					err := apperrors.Internal("", fmt.Errorf("panic: %v", r))
					reply = handler.Encode(handler.NewErrorResponse(err))
				}
			}()
			return next(ctx, req)
		}
	}
}
