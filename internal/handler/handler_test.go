package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

func token(t *testing.T, id int64, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": id, "role": role})
	s, err := tok.SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return s
}

func decodeBody(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestResponse_MarshalJSON(t *testing.T) {
	resp := Created("clinic", map[string]int{"id": 1}).WithMessage("New clinic created")

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"httpStatus":201,"clinic":{"id":1},"message":"New clinic created"}`, string(body))
}

func TestResponse_OmitsEmptyFields(t *testing.T) {
	body, err := json.Marshal(&Response{Status: 200})
	require.NoError(t, err)
	assert.JSONEq(t, `{"httpStatus":200}`, string(body))
}

func TestNewErrorResponse(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
		cause   string
	}{
		{"bad request", apperrors.BadRequest("No fields provided for update.", nil), 400, "No fields provided for update.", ""},
		{"unauthorized", apperrors.Unauthorized(errors.New("x")), 401, "Unauthorized", ""},
		{"forbidden", apperrors.Forbidden(nil), 403, "Forbidden", ""},
		{"not found", apperrors.NotFoundf("Clinic with ID %d not found.", 7), 404, "Clinic with ID 7 not found.", ""},
		{"database", apperrors.Database("get", errors.New("connection reset")), 500, "database get failed", "connection reset"},
		{"wrapped database", errors.Join(apperrors.Database("exec", errors.New("boom"))), 500, "database exec failed", "boom"},
		{"unknown", errors.New("surprise"), 500, "Some error occurred", "surprise"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewErrorResponse(tt.err)
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, tt.cause, resp.Error)
		})
	}
}

func TestAdapt_ConvertsErrors(t *testing.T) {
	h := Adapt(func(context.Context, []byte) (*Response, error) {
		return nil, apperrors.Forbidden(nil)
	})

	reply := h(context.Background(), &router.Request{Topic: "v1/clinics/create"})
	assert.Equal(t, 403, reply.Status)
	assert.JSONEq(t, `{"httpStatus":403,"message":"Forbidden"}`, string(reply.Body))
}

func TestAdapt_NilResponse(t *testing.T) {
	h := Adapt(func(context.Context, []byte) (*Response, error) { return nil, nil })

	reply := h(context.Background(), &router.Request{})
	assert.Equal(t, 500, reply.Status)
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	require.NoError(t, Decode([]byte(`{"name":"x"}`), &dst))
	assert.Equal(t, "x", dst.Name)

	err := Decode([]byte(`{"name":`), &dst)
	assert.Equal(t, 400, apperrors.Status(err))

	err = Decode(nil, &dst)
	assert.Equal(t, 400, apperrors.Status(err))
}

func TestValidate(t *testing.T) {
	type req struct {
		Name   *string `json:"name" validate:"required"`
		Rating int     `json:"rating" validate:"min=1,max=5"`
	}
	name := "x"

	assert.NoError(t, Validate(&req{Name: &name, Rating: 3}))

	err := Validate(&req{Rating: 3})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "name is required", appErr.Message)

	err = Validate(&req{Name: &name, Rating: 9})
	appErr, _ = apperrors.As(err)
	assert.Equal(t, "rating must be max 5", appErr.Message)
}

func TestFlexID(t *testing.T) {
	tests := []struct {
		in      string
		present bool
		valid   bool
		value   int64
	}{
		{`{"id":12}`, true, true, 12},
		{`{"id":"12"}`, true, true, 12},
		{`{"id":" 4 "}`, true, true, 4},
		{`{"id":"abc"}`, true, false, 0},
		{`{"id":"12abc"}`, true, false, 0},
		{`{"id":1.5}`, true, false, 0},
		{`{"id":true}`, true, false, 0},
		{`{"id":null}`, false, false, 0},
		{`{"id":""}`, false, false, 0},
		{`{}`, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var dst struct {
				ID FlexID `json:"id"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.in), &dst))
			assert.Equal(t, tt.present, dst.ID.Present())
			assert.Equal(t, tt.valid, dst.ID.Valid())
			assert.Equal(t, tt.value, dst.ID.Int64())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	_, err := Authenticate("")
	assert.Equal(t, 401, apperrors.Status(err))

	_, err = Authenticate("not-a-jwt")
	assert.Equal(t, 401, apperrors.Status(err))

	claims, err := Authenticate(token(t, 5, "patient"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), int64(claims.ID))
}

func TestRequireAdmin(t *testing.T) {
	_, err := RequireAdmin(token(t, 5, "dentist"))
	assert.Equal(t, 403, apperrors.Status(err))

	claims, err := RequireAdmin(token(t, 1, "admin"))
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestDecodeBodyHelper(t *testing.T) {
	out := decodeBody(t, Encode(OK("clinics", []int{}).WithMessage(nil)).Body)
	assert.Equal(t, float64(200), out["httpStatus"])
	assert.Equal(t, []interface{}{}, out["clinics"])
}
