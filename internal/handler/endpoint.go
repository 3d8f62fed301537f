package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

// Endpoint handles one topic. A returned error is converted to an envelope
// by Adapt; handlers never write error envelopes themselves.
type Endpoint func(ctx context.Context, payload []byte) (*Response, error)

var fallbackBody = []byte(`{"httpStatus":500,"message":"Some error occurred"}`)

// Adapt turns an Endpoint into a router handler.
func Adapt(e Endpoint) router.HandlerFunc {
	return func(ctx context.Context, req *router.Request) *router.Reply {
		resp, err := e(ctx, req.Payload)
		if err != nil {
			logError(ctx, req.Topic, err)
			resp = NewErrorResponse(err)
		}
		if resp == nil {
			resp = NewErrorResponse(apperrors.Internal("", nil))
		}
		return Encode(resp)
	}
}

// Encode serializes resp into a router reply.
func Encode(resp *Response) *router.Reply {
	body, err := json.Marshal(resp)
	if err != nil {
		return &router.Reply{Status: http.StatusInternalServerError, Body: fallbackBody}
	}
	return &router.Reply{Status: resp.Status, Body: body}
}

func logError(ctx context.Context, topic string, err error) {
	log := zerolog.Ctx(ctx)
	status := apperrors.Status(err)

	var event *zerolog.Event
	if status >= http.StatusInternalServerError {
		event = log.Error()
	} else {
		event = log.Debug()
	}
	event.Err(err).Str("topic", topic).Int("status", status).Msg("request failed")
}
