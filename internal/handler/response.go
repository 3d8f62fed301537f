package handler

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

// Response is the reply envelope:
//
//	{"httpStatus": 200, "message": ..., "<resource>": ..., "error": ...}
//
// Message, the resource key and Error are omitted when empty.
type Response struct {
	Status   int
	Message  interface{}
	Resource string
	Data     interface{}
	Error    string
}

func (r *Response) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"httpStatus": r.Status}
	if r.Message != nil {
		out["message"] = r.Message
	}
	if r.Resource != "" {
		out[r.Resource] = r.Data
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

func NewResponse(status int, resource string, data interface{}) *Response {
	return &Response{Status: status, Resource: resource, Data: data}
}

func OK(resource string, data interface{}) *Response {
	return NewResponse(http.StatusOK, resource, data)
}

func Created(resource string, data interface{}) *Response {
	return NewResponse(http.StatusCreated, resource, data)
}

// WithMessage sets the envelope message and returns r.
func (r *Response) WithMessage(msg interface{}) *Response {
	r.Message = msg
	return r
}

// NewErrorResponse converts err into an envelope. Errors outside the
// apperrors taxonomy become 500s. Internal errors carry their cause in the
// error field.
func NewErrorResponse(err error) *Response {
	appErr, ok := apperrors.As(err)
	if !ok {
		return &Response{
			Status:  http.StatusInternalServerError,
			Message: "Some error occurred",
			Error:   err.Error(),
		}
	}

	resp := &Response{Status: appErr.Status(), Message: appErr.Message}
	if appErr.Code == apperrors.ErrInternal && appErr.Err != nil {
		resp.Error = appErr.Err.Error()
	}
	return resp
}
